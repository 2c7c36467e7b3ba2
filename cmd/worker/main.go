package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/cache"
	"github.com/fhuszti/videos-ms-go/internal/config"
	"github.com/fhuszti/videos-ms-go/internal/db"
	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/metrics"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/videos-ms-go/internal/storage"
	"github.com/fhuszti/videos-ms-go/internal/task"
	"github.com/fhuszti/videos-ms-go/internal/transcoder"
	videoSvc "github.com/fhuszti/videos-ms-go/internal/usecase/video"
	"github.com/fhuszti/videos-ms-go/internal/worker"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set to run the worker")
		os.Exit(1)
	}
	if cfg.TranscoderCommand == "" {
		logger.Error(ctx, "⚠️  TRANSCODER_COMMAND must be set to run the worker")
		os.Exit(1)
	}

	database := initDb(ctx, cfg)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	strg := initStorage(ctx, cfg)
	if err := strg.InitBucket(cfg.Bucket); err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize bucket %q: %v", cfg.Bucket, err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warnf(ctx, "Redis close error: %v", err)
		}
	}()

	repo := mariadb.NewVideoRepository(database.DB)
	tc := transcoder.NewProcess(cfg.TranscoderCommand, cfg.TranscoderArgs)
	runner := videoSvc.NewTranscodeRunner(strg, tc, cfg.Bucket, cfg.SignedURLExpiry)
	reconciler := videoSvc.NewStatusReconciler(repo, cache.NewCache(rdb), strg, cfg.Bucket)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewWorker(reg)

	src := worker.NewAsynqSource()
	mux := asynq.NewServeMux()
	mux.Handle(task.TypeTranscodeVideo, src)

	metricsSrv := &http.Server{Addr: ":" + strconv.Itoa(cfg.MetricsPort), Handler: metrics.Handler(reg)}
	go func() {
		logger.Infof(ctx, "📈 Metrics listening on %s", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Metrics listen error: %v", err)
		}
	}()

	consumerCtx, stopConsumers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Consumers; i++ {
		c := worker.NewConsumer(runner, reconciler, m, cfg.JobDeadline, cfg.JobMaxAttempts)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Run(consumerCtx, src.Deliveries())
		}()
	}

	runWorker(ctx, mux, cfg, func() {
		stopConsumers()
		wg.Wait()
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf(ctx, "Metrics server shutdown error: %v", err)
	}
	logger.Info(ctx, "✅  Worker gracefully stopped")
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

// runWorker blocks until SIGINT/SIGTERM, then drains the asynq server before
// stopping the consumers.
func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings, stopConsumers func()) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, worker.NewServerConfig(cfg.QueueName, cfg.Consumers, cfg.JobDeadline))

	if err := srv.Start(mux); err != nil {
		logger.Errorf(ctx, "❌  Worker failed: %v", err)
		os.Exit(1)
	}
	logger.Infof(ctx, "🚀 Worker started on queue %q with %d consumer(s)", cfg.QueueName, cfg.Consumers)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	worker.Drain(srv, stopConsumers)
}
