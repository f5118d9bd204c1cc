package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg := InitConfig("does-not-exist.env")

	assert.Equal(t, "otpgate", cfg.App.Name)
	assert.Equal(t, 9990, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, time.Minute, cfg.OTP.CleanupDelay)
	assert.Equal(t, "log", cfg.SMS.Provider)
	assert.Equal(t, 10*time.Second, cfg.SMS.Timeout)
	assert.Equal(t, "pgx", cfg.Database.Driver)
}

func TestInitConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("SMS_PROVIDER", "twilio")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := InitConfig("")

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.OTP.TTL)
	assert.Equal(t, "twilio", cfg.SMS.Provider)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestInitConfig_LoadsEnvFileWhenLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.env")
	require.NoError(t, os.WriteFile(path, []byte("OTP_CLEANUP_DELAY=2m\nTWILIO_FROM_NUMBER=+15550001111\n"), 0o600))

	t.Setenv("APP_ENV", "local")
	// registered so the values loaded by godotenv are restored after the test
	t.Setenv("OTP_CLEANUP_DELAY", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")
	require.NoError(t, os.Unsetenv("OTP_CLEANUP_DELAY"))
	require.NoError(t, os.Unsetenv("TWILIO_FROM_NUMBER"))

	cfg := InitConfig(path)

	assert.Equal(t, 2*time.Minute, cfg.OTP.CleanupDelay)
	assert.Equal(t, "+15550001111", cfg.SMS.TwilioFromNumber)
}
