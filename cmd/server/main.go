package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"claim-risk/internal/api"
	"claim-risk/internal/config"
	"claim-risk/internal/store"
)

func main() {
	config.LoadEnv()

	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	cfg := config.FromEnv(baseDir)
	if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.Fatalf("configure logging: %v", err)
	}

	var db *store.Database
	if cfg.DisableStats {
		logrus.Info("decision stats disabled via configuration")
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
		db, err = store.Open(cfg.DBPath, cfg.SilentDB)
		if err != nil {
			logrus.Fatalf("open store: %v", err)
		}
		defer db.Close()
		logrus.WithField("path", cfg.DBPath).Info("decision stats enabled")
	}

	server, err := api.NewServer(api.Config{
		AnalyzeDelay:   cfg.AnalyzeDelay,
		AllowedOrigins: cfg.AllowedOrigins,
		DisableFeed:    cfg.DisableFeed,
		Store:          db,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	logrus.Infof("starting claim-risk server on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.Errorf("server exited: %v", err)
	}
}
