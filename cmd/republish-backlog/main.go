package main

import (
	"context"
	"os"

	"github.com/fhuszti/videos-ms-go/internal/config"
	"github.com/fhuszti/videos-ms-go/internal/db"
	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/videos-ms-go/internal/storage"
	"github.com/fhuszti/videos-ms-go/internal/task"
	videoSvc "github.com/fhuszti/videos-ms-go/internal/usecase/video"
	"github.com/hibiken/asynq"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	if cfg.RedisAddr == "" {
		logger.Error(ctx, "❌  Redis not configured: this command requires a running Redis instance")
		os.Exit(1)
	}

	database := initDb(ctx, cfg)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	strg, err := storage.NewStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warnf(ctx, "Task client close error: %v", err)
		}
	}()
	dispatcher := task.NewDispatcher(client, cfg.QueueName, cfg.JobMaxAttempts, cfg.JobDeadline)

	repo := mariadb.NewVideoRepository(database.DB)
	publisher := videoSvc.NewBacklogPublisher(repo, strg, dispatcher, cfg.SignedURLExpiry, cfg.BacklogMinAge)
	if err := publisher.PublishBacklog(ctx); err != nil {
		logger.Errorf(ctx, "❌  Backlog republish failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Backlog republish completed")
}

func initDb(ctx context.Context, cfg *config.Settings) *db.Database {
	logger.Info(ctx, "initialising database...")
	database, err := db.NewFromConfig(db.ConfigFromSettings(cfg))
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	return database
}
