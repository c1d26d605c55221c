// Package config loads runtime configuration for the libcat client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or --config. Files ending in
//     .yaml or .yml are YAML, everything else is JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-c, --config string       path to a JSON or YAML config file
//	-s, --server string       catalogue service base URL
//	    --data-dir string     directory for local state
//	    --persist-session     keep the session across restarts
//	    --token-store string  sqlite or keyring
//	    --timeout duration    timeout for a single request
//	    --log-level string    debug, info, warn or error
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "15s" or
// integer nanoseconds. Keys that are left out keep their earlier value.
//
//	{
//	  "server_url": "http://127.0.0.1:9000/api",
//	  "data_dir": "/home/me/.config/libcat",
//	  "persist_session": true,
//	  "token_store": "keyring",
//	  "request_timeout": "10s",
//	  "log_level": "info"
//	}
//
// Environment variables are not read.
package config
