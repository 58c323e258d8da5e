package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"DATABASE_URL": "postgres://localhost/isuku"}))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30, cfg.ScheduleHorizonDays)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.SeedDemoData)
	assert.Error(t, cfg.RequireJWTSecret())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DATABASE_URL":          "postgres://db/isuku",
		"PORT":                  "9000",
		"APP_JWT_SECRET":        "s",
		"APP_JWT_TTL_HOURS":     "12",
		"SCHEDULE_HORIZON_DAYS": "14",
		"CORS_ALLOWED_ORIGINS":  "https://admin.isuku.rw, https://portal.isuku.rw",
		"SEED_DEMO_DATA":        "true",
	}))

	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 14, cfg.ScheduleHorizonDays)
	assert.Equal(t, []string{"https://admin.isuku.rw", "https://portal.isuku.rw"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.SeedDemoData)
	assert.NoError(t, cfg.RequireJWTSecret())
}

func TestFromEnv_Errors(t *testing.T) {
	_, err := FromEnv(env(map[string]string{}))
	assert.ErrorContains(t, err, "DATABASE_URL")

	_, err = FromEnv(env(map[string]string{"DATABASE_URL": "x", "SCHEDULE_HORIZON_DAYS": "-3"}))
	assert.ErrorContains(t, err, "SCHEDULE_HORIZON_DAYS")

	_, err = FromEnv(env(map[string]string{"DATABASE_URL": "x", "SEED_DEMO_DATA": "maybe"}))
	assert.ErrorContains(t, err, "SEED_DEMO_DATA")
}
