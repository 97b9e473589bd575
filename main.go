package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/tphakala/swingcam/cmd"
	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		log.Fatalf("error loading configuration: %v", err)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)

	if settings.Main.Log.Enabled {
		opts := logging.OptionsForRotation(settings.Main.Log.Rotation, settings.Main.Log.MaxSize)
		closeLog, err := logging.InitFile(settings.Main.Log.Path, level, opts)
		if err != nil {
			logging.Warn("failed to open log file, logging to console only",
				"path", settings.Main.Log.Path, "error", err)
		} else {
			defer closeLog() //nolint:errcheck
		}
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
