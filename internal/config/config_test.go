package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8431", cfg.HTTPAddr)
	assert.Equal(t, "/login/action", cfg.LoginActionURL)
	assert.Equal(t, "IND", cfg.DefaultCountry)
	assert.Equal(t, 15*time.Minute, cfg.SessionIdleTTL())
	assert.Equal(t, 5*time.Minute, cfg.OTPLifetime())
	assert.Equal(t, 10, cfg.OTPRatePerMinute)
	assert.Empty(t, cfg.TrustedProxyList())
	_, ok := cfg.Redis()
	assert.False(t, ok)
}

func TestLoad_EnvVarOverride(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SESSION_TTL", "2m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_TIMEZONE", "Asia/Kolkata")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,192.0.2.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Minute, cfg.SessionIdleTTL())
	r, ok := cfg.Redis()
	require.True(t, ok)
	assert.Equal(t, "localhost:6379", r.Addr)
	assert.Equal(t, 2, r.DB)
	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "Asia/Kolkata", cfg.Database().TimeZone)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxyList())
}

func TestLoad_DevLogRefusedInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("OTP_DEV_LOG", "true")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionNeedsSMSKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("OTP_DEV_LOG", "false")
	t.Setenv("SMS_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SMS_API_KEY", "k")
	_, err = Load()
	assert.NoError(t, err)
}

func TestParseDuration_InvalidFallsBack(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration(" 3s ", time.Minute))
}
