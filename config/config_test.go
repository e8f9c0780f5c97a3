package config

import (
	"flag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func envFrom(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":8080", cfg.ServerAddr)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "eur", cfg.Currency)
				assert.Equal(t, 587, cfg.EmailPort)
				assert.Equal(t, 5*time.Minute, cfg.PendingSweepInterval)
				assert.Equal(t, 30*time.Minute, cfg.PendingStaleAfter)
				assert.False(t, cfg.TrustProxy)
			},
		},
		{
			name: "flags",
			args: []string{"-a", ":9090", "-d", "postgres://db", "-b", "https://shop.example"},
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":9090", cfg.ServerAddr)
				assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
				assert.Equal(t, "https://shop.example", cfg.BaseURL)
			},
		},
		{
			name: "env_overrides_flags",
			args: []string{"-a", ":9090"},
			env: map[string]string{
				"RUN_ADDRESS":            ":7070",
				"STRIPE_WEBHOOK_SECRET":  "whsec_1",
				"EMAIL_SERVER_PORT":      "2525",
				"RATE_RPS":               "0.5",
				"PENDING_SWEEP_INTERVAL": "1m",
				"TRUST_PROXY":            "true",
			},
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":7070", cfg.ServerAddr)
				assert.Equal(t, "whsec_1", cfg.StripeWebhookSecret)
				assert.Equal(t, 2525, cfg.EmailPort)
				assert.Equal(t, 0.5, cfg.RateRPS)
				assert.Equal(t, time.Minute, cfg.PendingSweepInterval)
				assert.True(t, cfg.TrustProxy)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), tt.args, envFrom(tt.env))
			require.NoError(t, err)
			tt.want(t, cfg)
		})
	}
}

func TestParse_InvalidEnv(t *testing.T) {
	for _, key := range []string{"EMAIL_SERVER_PORT", "RATE_RPS", "RATE_BURST", "TRUST_PROXY", "PENDING_SWEEP_INTERVAL", "PENDING_STALE_AFTER"} {
		_, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), nil, envFrom(map[string]string{key: "abc"}))
		assert.Error(t, err, key)
	}
}
