package config

import (
	"io"

	"github.com/dmitrijs2005/libcat/internal/common"
	"github.com/dmitrijs2005/libcat/internal/flagx"
	"github.com/spf13/pflag"
)

// newFlagSet binds every flag to the matching field of cfg, using the
// current field values as defaults so that unset flags keep what the
// defaults and the config file produced.
func newFlagSet(cfg *Config) *pflag.FlagSet {
	var configPath string

	fs := pflag.NewFlagSet(common.AppName, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	flagx.AddConfigFlag(fs, &configPath)
	fs.StringVarP(&cfg.ServerURL, "server", "s", cfg.ServerURL, "catalogue service base URL")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for local state (default: user config dir)")
	fs.BoolVar(&cfg.PersistSession, "persist-session", cfg.PersistSession, "keep the session across restarts")
	fs.StringVar(&cfg.TokenStore, "token-store", cfg.TokenStore, "where a persisted session lives: sqlite or keyring")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "timeout for a single request")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	return fs
}

// parseFlags overlays cfg with command-line flags.
func parseFlags(cfg *Config, args []string) error {
	return newFlagSet(cfg).Parse(args)
}

// Usage returns the flag help text with built-in defaults.
func Usage() string {
	cfg := &Config{}
	cfg.LoadDefaults()
	return newFlagSet(cfg).FlagUsages()
}
