package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_TTL_HOURS", "not-a-number")
	t.Setenv("PROGRESS_SWEEP_SPEC", "")

	cfg := FromEnv()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24, cfg.JWTTTLHours)
	assert.Equal(t, "*/15 * * * *", cfg.ProgressSweepSpec)
	assert.Equal(t, "console", cfg.MailProvider)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("ROLE_CACHE_TTL_MINUTES", "3")
	t.Setenv("PROGRESS_SWEEP_SPEC", "Off")

	cfg := FromEnv()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 3, cfg.RoleCacheTTLMinutes)
	assert.Empty(t, cfg.ProgressSweepSpec)
}

func TestWebhookAllowsUnsigned(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"default", Config{AppEnv: "development"}, false},
		{"dev override", Config{AppEnv: "development", StripeAllowUnsigned: true}, true},
		{"production ignores override", Config{AppEnv: "production", StripeAllowUnsigned: true}, false},
		{"secret wins", Config{AppEnv: "development", StripeAllowUnsigned: true, StripeWebhookSecret: "whsec"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.WebhookAllowsUnsigned())
		})
	}
}
