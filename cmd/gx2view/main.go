// Package main is the entry point for gx2view, which loads a shader set and
// streams it through the TV and DRC color buffers.
package main

import (
	"fmt"
	"os"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/gx2res/internal/config"
	"github.com/Faultbox/gx2res/internal/logger"
	"github.com/Faultbox/gx2res/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== gx2view ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if config.SaveRequested() {
		if err := cfg.Save(); err != nil {
			logger.Warn("failed to save config", zap.Error(err))
		} else {
			logger.Info("config saved", zap.String("dir", config.ConfigDir()))
		}
	}

	pickManifest(cfg)

	v, err := viewer.New(cfg)
	if err != nil {
		logger.Fatal("failed to create viewer", zap.Error(err))
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

// pickManifest asks for a manifest with a file dialog when the configured one
// does not exist and a window will be opened.
func pickManifest(cfg *config.Config) {
	if cfg.Display.Headless {
		return
	}
	if _, err := os.Stat(cfg.Shader.Manifest); err == nil {
		return
	}

	filename, err := dialog.File().
		Filter("Shader manifests", "yaml", "yml").
		Filter("All Files", "*").
		Title("Open shader manifest").
		Load()
	if err != nil {
		if err != dialog.ErrCancelled {
			logger.Warn("file dialog error", zap.Error(err))
		}
		return
	}
	cfg.Shader.Manifest = filename
}
