package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"SERVER_PORT", "OCR_PROVIDER", "OCR_LANGUAGES", "UPLOAD_DIR", "RECEIPT_TABLES_FILE", "JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "tesseract", cfg.OCR.Provider)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, int64(10*1024*1024), cfg.OCR.MaxUploadSize)
	assert.Equal(t, 168*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 30*time.Second, cfg.Breaker.OpenTimeout)
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("OCR_LANGUAGES", "eng+msa, rus")
	t.Setenv("OCR_TIMEOUT", "15s")
	t.Setenv("RECEIPT_TABLES_FILE", "/etc/fintrack/tables.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"eng", "msa", "rus"}, cfg.OCR.Languages)
	assert.Equal(t, 15*time.Second, cfg.Breaker.Timeout)
	assert.Equal(t, "/etc/fintrack/tables.yaml", cfg.Receipt.TablesFile)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: "99999", ScanRateLimit: 0},
		OCR:     OCRConfig{Provider: "gigachat", MaxUploadSize: 1, UploadDir: "uploads"},
		JWT:     JWTConfig{SecretKey: "s", Expiration: time.Hour, RefreshExp: time.Hour},
		Breaker: BreakerConfig{FailureRatio: 0.5},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
	assert.Contains(t, err.Error(), "invalid scan rate limit")
	assert.Contains(t, err.Error(), "GIGACHAT_API_KEY is required")
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: "3001", ScanRateLimit: 10},
		OCR:     OCRConfig{Provider: "paddle", MaxUploadSize: 1, UploadDir: "uploads"},
		JWT:     JWTConfig{SecretKey: "s", Expiration: time.Hour, RefreshExp: time.Hour},
		Breaker: BreakerConfig{FailureRatio: 0.5},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid OCR provider "paddle"`)
}
