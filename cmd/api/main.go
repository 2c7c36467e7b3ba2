package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/cache"
	"github.com/fhuszti/videos-ms-go/internal/config"
	"github.com/fhuszti/videos-ms-go/internal/db"
	"github.com/fhuszti/videos-ms-go/internal/handler/api"
	"github.com/fhuszti/videos-ms-go/internal/logger"
	cMiddleware "github.com/fhuszti/videos-ms-go/internal/middleware"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/videos-ms-go/internal/storage"
	"github.com/fhuszti/videos-ms-go/internal/task"
	videoSvc "github.com/fhuszti/videos-ms-go/internal/usecase/video"
	msuuid "github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
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
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set: uploads cannot be scheduled for transcoding without it")
		os.Exit(1)
	}

	database := initDb(ctx, cfg)

	r := initRouter(ctx, cfg.JWTPublicKey)

	strg := initStorage(ctx, cfg)
	if err := strg.InitBucket(cfg.Bucket); err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize bucket %q: %v", cfg.Bucket, err)
		os.Exit(1)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	queue := asynq.NewClient(redisOpt)
	dispatcher := task.NewDispatcher(queue, cfg.QueueName, cfg.JobMaxAttempts, cfg.JobDeadline)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	var ca port.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		ca = cache.NewNoop()
		logger.Warnf(ctx, "⚠️  Redis unreachable (%v), caching is disabled", err)
	} else {
		ca = cache.NewCache(rdb)
		logger.Info(ctx, "✅  Redis cache enabled")
	}

	videoRepo := mariadb.NewVideoRepository(database.DB)

	uploaderSvc := videoSvc.NewVideoUploader(videoRepo, strg, dispatcher, cfg.Bucket, cfg.SignedURLExpiry, msuuid.NewUUID)
	r.Post("/videos/upload", api.UploadVideoHandler(uploaderSvc))

	getterSvc := videoSvc.NewVideoGetter(videoRepo, ca)
	r.With(cMiddleware.WithVideoID()).
		Get("/videos/{id}", api.GetVideoHandler(getterSvc))

	listerSvc := videoSvc.NewVideoLister(videoRepo)
	r.Get("/videos", api.ListVideosHandler(listerSvc))

	listenRouter(ctx, r, cfg, func() {
		if err := queue.Close(); err != nil {
			logger.Warnf(ctx, "Task client close error: %v", err)
		}
		if err := rdb.Close(); err != nil {
			logger.Warnf(ctx, "Redis close error: %v", err)
		}
		if err := database.Close(); err != nil {
			logger.Errorf(ctx, "DB close error: %v", err)
			os.Exit(1)
		}
	})
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

func initRouter(ctx context.Context, jwtKey string) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(cMiddleware.WithDSTAuth(jwtKey))

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
}

func initStorage(ctx context.Context, cfg *config.Settings) port.Storage {
	strg, err := storage.NewStorage(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioUseSSL,
	)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}

	return strg
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, closeDeps func()) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// uploads can take a while to stream in
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Server gracefully stopped")

	closeDeps()
}
