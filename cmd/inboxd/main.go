package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/membrane-io/user/internal/app"
	"github.com/membrane-io/user/pkg/config"
	"github.com/membrane-io/user/pkg/logger"
)

// set build metadata
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// load .env file if present
	_ = godotenv.Load(".env")

	flags, err := config.ParseConfigFlags(os.Args[1:])
	if err != nil {
		app.Abort("invalid flags", err)
	}

	eff, err := config.LoadEffectiveConfig(flags)
	if err != nil {
		app.Abort("failed to build effective config", err)
	}

	if err := config.ValidateConfig(eff); err != nil {
		app.Abort("invalid configuration", err)
	}

	// initialize logger after config is fully loaded
	logger.Init(eff.Config.Logging.Level)
	defer logger.Sync()

	logger.Info("effective_config_loaded", "sources", eff.Sources, "addr", eff.Addr, "db_path", eff.DBPath)

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		app.Abort("failed to initialize app", err)
	}

	ctx, cancel := app.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		app.Abort("app run failed", err)
	}

	// bounded teardown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	_ = a.Shutdown(shutdownCtx)
}
