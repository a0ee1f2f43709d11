package main

import (
	"log/slog"

	"github.com/tphakala/camtrap-go/cmd"
	"github.com/tphakala/camtrap-go/internal/conf"
	"github.com/tphakala/camtrap-go/internal/logging"
	"github.com/tphakala/camtrap-go/internal/telemetry"
)

// version is overridden at build time via -ldflags
var version = "dev"

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("Error loading configuration", "error", err)
	}
	settings.Version = version

	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	if err := telemetry.InitSentry(settings); err != nil {
		logging.Warn("Telemetry initialization failed", "error", err)
	}
	defer telemetry.Flush()

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		telemetry.Flush()
		logging.Fatal("Command execution failed", "error", err)
	}
}
