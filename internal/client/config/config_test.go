package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:9000/api", c.ServerURL)
	assert.Empty(t, c.DataDir)
	assert.False(t, c.PersistSession)
	assert.Equal(t, "sqlite", c.TokenStore)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, "warn", c.LogLevel)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsWithoutArgs(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	require.NotNil(t, cfg, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *cfg)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libcat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server_url: http://file.example/api\ntoken_store: keyring\nrequest_timeout: 5s\n"), 0o600))

	cfg, err := LoadConfig([]string{"--config", path, "--server", "http://flag.example", "--log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, "http://flag.example", cfg.ServerURL, "flag beats file")
	assert.Equal(t, "keyring", cfg.TokenStore, "file beats default")
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "unknown token store", args: []string{"--token-store", "floppy"}, wantErr: ErrInvalidConfig},
		{name: "zero timeout", args: []string{"--timeout", "0s"}, wantErr: ErrInvalidConfig},
		{name: "bad log level", args: []string{"--log-level", "loud"}, wantErr: ErrInvalidConfig},
		{name: "help", args: []string{"--help"}, wantErr: pflag.ErrHelp},
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "missing file", args: []string{"-c", filepath.Join(t.TempDir(), "absent.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(tt.args)
			require.Error(t, err)
			assert.Nil(t, cfg)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
		})
	}
}

func TestUsage(t *testing.T) {
	u := Usage()
	for _, name := range []string{"--config", "--server", "--data-dir", "--persist-session", "--token-store", "--timeout", "--log-level"} {
		assert.Contains(t, u, name)
	}
}
