package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultPort         = "3000"
	defaultAnalyzeDelay = 1500 * time.Millisecond
)

// Config holds server settings read from the environment.
type Config struct {
	Port           string
	DBPath         string
	AnalyzeDelay   time.Duration
	AllowedOrigins []string
	DisableStats   bool
	DisableFeed    bool
	SilentDB       bool
	LogLevel       string
	LogFormat      string
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset or unparsable.
func FromEnv(baseDir string) Config {
	cfg := Config{
		Port:         GetEnv("PORT", defaultPort),
		DBPath:       filepath.Join(baseDir, "data", "claim-risk.db"),
		AnalyzeDelay: defaultAnalyzeDelay,
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		LogFormat:    GetEnv("LOG_FORMAT", "text"),
		DisableStats: GetBoolEnv("DISABLE_STATS"),
		DisableFeed:  GetBoolEnv("DISABLE_FEED"),
		SilentDB:     GetBoolEnv("SILENT_DB"),
	}

	if override := strings.TrimSpace(os.Getenv("CLAIM_RISK_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if delay := strings.TrimSpace(os.Getenv("ANALYZE_DELAY")); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d >= 0 {
			cfg.AnalyzeDelay = d
		} else {
			logrus.WithField("value", delay).Warn("invalid ANALYZE_DELAY, using default")
		}
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	return cfg
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return defaultVal
}

// GetBoolEnv reports whether key is set to a true value.
func GetBoolEnv(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

// ConfigureLogging applies the level and formatter to the standard logrus logger.
func ConfigureLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logrus.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}
