package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "CLAIM_RISK_DB_PATH", "ANALYZE_DELAY", "ALLOWED_ORIGINS", "DISABLE_STATS", "DISABLE_FEED", "SILENT_DB", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg := FromEnv("/srv")

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, filepath.Join("/srv", "data", "claim-risk.db"), cfg.DBPath)
	assert.Equal(t, 1500*time.Millisecond, cfg.AnalyzeDelay)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.DisableStats)
	assert.False(t, cfg.DisableFeed)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CLAIM_RISK_DB_PATH", "/tmp/x.db")
	t.Setenv("ANALYZE_DELAY", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, ,https://claims.example.com")
	t.Setenv("DISABLE_STATS", "true")
	t.Setenv("DISABLE_FEED", "1")

	cfg := FromEnv("/srv")
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 250*time.Millisecond, cfg.AnalyzeDelay)
	assert.Equal(t, []string{"http://localhost:5173", "https://claims.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.DisableStats)
	assert.True(t, cfg.DisableFeed)
}

func TestFromEnvInvalidDelayKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANALYZE_DELAY", "soon")
	assert.Equal(t, 1500*time.Millisecond, FromEnv(".").AnalyzeDelay)

	t.Setenv("ANALYZE_DELAY", "-1s")
	assert.Equal(t, 1500*time.Millisecond, FromEnv(".").AnalyzeDelay)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("PORT"))
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=4321\n"), 0o600))

	LoadEnv(path)
	t.Cleanup(func() { _ = os.Unsetenv("PORT") })
	assert.Equal(t, "4321", GetEnv("PORT", "3000"))
}

func TestConfigureLogging(t *testing.T) {
	prevLevel := logrus.GetLevel()
	prevFormatter := logrus.StandardLogger().Formatter
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(prevFormatter)
	})

	require.NoError(t, ConfigureLogging("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	assert.Error(t, ConfigureLogging("loud", "text"))
	assert.Error(t, ConfigureLogging("info", "xml"))
}
