package main

import (
	"context"
	"flag"
	"os"

	"github.com/fhuszti/videos-ms-go/internal/config"
	"github.com/fhuszti/videos-ms-go/internal/db"
	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/migration"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying pending ones")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	database, err := db.NewFromConfig(db.ConfigFromSettings(cfg).WithMultiStatements())
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "⚠️  Failed to close db: %v", err)
		}
	}()

	if *down > 0 {
		if err := migration.MigrateDown(database.DB, *down); err != nil {
			logger.Errorf(ctx, "❌  Migration down failed: %v", err)
			os.Exit(1)
		}
	} else if err := migration.MigrateUp(database.DB); err != nil {
		logger.Errorf(ctx, "❌  Migration up failed: %v", err)
		os.Exit(1)
	}

	version, dirty, err := migration.Version(database.DB)
	if err != nil {
		logger.Errorf(ctx, "❌  %v", err)
		os.Exit(1)
	}
	logger.Infof(ctx, "✅  Videos schema at version %d (dirty=%t)", version, dirty)
}
