package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"-s", "http://10.0.0.1:8000", "--data-dir", "/d", "--persist-session",
				"--token-store", "keyring", "--timeout", "3s", "--log-level", "debug"},
			expected: &Config{ServerURL: "http://10.0.0.1:8000", DataDir: "/d", PersistSession: true,
				TokenStore: "keyring", RequestTimeout: 3 * time.Second, LogLevel: "debug"},
		},
		{
			name: "config flag is accepted and ignored",
			args: []string{"-c", "whatever.json", "--timeout=1m"},
			expected: func() *Config {
				c := defaults()
				c.RequestTimeout = time.Minute
				return c
			}(),
		},
		{name: "no flags keep current values", args: nil, expected: defaults()},
		{name: "incorrect timeout", args: []string{"--timeout", "abc"}, wantErr: true},
		{name: "positional junk is ignored", args: []string{"extra"}, expected: defaults()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := defaults()
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
