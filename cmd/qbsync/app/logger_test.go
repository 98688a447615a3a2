package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		want   string
	}{
		{
			name:   "default",
			config: &Config{},
			want:   "info",
		},
		{
			name:   "explicit log level wins",
			config: &Config{LogLevel: "error", Verbose: true},
			want:   "error",
		},
		{
			name:   "invalid explicit level falls back to info",
			config: &Config{LogLevel: "loud"},
			want:   "info",
		},
		{
			name:   "verbose means debug",
			config: &Config{Verbose: true},
			want:   "debug",
		},
		{
			name:   "quiet means warn",
			config: &Config{Quiet: true},
			want:   "warn",
		},
		{
			name:   "verbose and quiet conflict resolves to quiet",
			config: &Config{Verbose: true, Quiet: true},
			want:   "warn",
		},
		{
			name:   "trace accepted",
			config: &Config{LogLevel: "trace"},
			want:   "trace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(tt.config))
		})
	}
}

func TestValidateLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		assert.Equal(t, level, validateLogLevel(level))
	}
	assert.Equal(t, "info", validateLogLevel("bogus"))
	assert.Equal(t, "info", validateLogLevel(""))
}
