package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.Donor.MaxUploadBytes)
	assert.Equal(t, 2, cfg.Donor.BloodUnitsPerDonor)
	assert.False(t, cfg.Donor.PublicFiles)
	assert.Equal(t, 5, cfg.Database.ConnectRetries)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("ENV", "production")
	t.Setenv("FRONTEND_URL", "https://a.example, https://b.example ,")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("DB_CONNECT_RETRIES", "not-a-number")

	cfg := Load()

	assert.Equal(t, "8088", cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Auth.AllowDevSeed)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Database.ConnectRetries, "malformed values fall back to defaults")
}
