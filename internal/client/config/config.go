package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/libcat/internal/client/tokenstore"
	"github.com/dmitrijs2005/libcat/internal/flagx"
	"github.com/dmitrijs2005/libcat/internal/logging"
)

// Config holds runtime settings for the libcat client.
//
// An empty DataDir means the per-user config directory (see filex.AppDir).
// ServerURL is normalised by the gateway, which falls back to its default
// for values it cannot use.
type Config struct {
	ServerURL      string
	DataDir        string
	PersistSession bool
	TokenStore     string
	RequestTimeout time.Duration
	LogLevel       string
}

var ErrInvalidConfig = errors.New("invalid configuration")

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:9000/api"
	c.DataDir = ""
	c.PersistSession = false
	c.TokenStore = tokenstore.KindSQLite
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "warn"
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch c.TokenStore {
	case tokenstore.KindSQLite, tokenstore.KindKeyring:
	default:
		return fmt.Errorf("%w: token_store %q (want %s or %s)",
			ErrInvalidConfig, c.TokenStore, tokenstore.KindSQLite, tokenstore.KindKeyring)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive, got %s", ErrInvalidConfig, c.RequestTimeout)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the config file (if -c/--config is given) and command-line flags.
// Later sources take precedence over earlier ones. args usually is
// os.Args[1:]. pflag.ErrHelp is returned as is when help was requested.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigPath(args); path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
