package testutil

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/cache"
	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/metrics"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/videos-ms-go/internal/storage"
	"github.com/fhuszti/videos-ms-go/internal/task"
	videoSvc "github.com/fhuszti/videos-ms-go/internal/usecase/video"
	"github.com/fhuszti/videos-ms-go/internal/worker"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

type WorkerConfig struct {
	RedisAddr   string
	Queue       string
	Bucket      string
	Deadline    time.Duration
	MaxAttempts int
	Consumers   int
}

// StartWorker runs the transcode pipeline the way cmd/worker does, with tc in
// place of the external process and retries spaced 100ms apart.
// It returns the worker metrics and a function that stops everything.
func StartWorker(db *sql.DB, strg *storage.Strg, tc port.Transcoder, cfg WorkerConfig) (*metrics.Worker, func()) {
	if cfg.Consumers < 1 {
		cfg.Consumers = 1
	}

	repo := mariadb.NewVideoRepository(db)
	runner := videoSvc.NewTranscodeRunner(strg, tc, cfg.Bucket, time.Hour)
	reconciler := videoSvc.NewStatusReconciler(repo, cache.NewNoop(), strg, cfg.Bucket)
	m := metrics.NewWorker(prometheus.NewRegistry())

	src := worker.NewAsynqSource()
	mux := asynq.NewServeMux()
	mux.Handle(task.TypeTranscodeVideo, src)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < cfg.Consumers; i++ {
		c := worker.NewConsumer(runner, reconciler, m, cfg.Deadline, cfg.MaxAttempts)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Run(ctx, src.Deliveries())
		}()
	}

	srvCfg := worker.NewServerConfig(cfg.Queue, cfg.Consumers, cfg.Deadline)
	srvCfg.RetryDelayFunc = func(int, error, *asynq.Task) time.Duration {
		return 100 * time.Millisecond
	}
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, srvCfg)
	if err := srv.Start(mux); err != nil {
		logger.Errorf(context.Background(), "worker did not start: %v", err)
	}

	return m, func() {
		worker.Drain(srv, func() {
			cancel()
			wg.Wait()
		})
	}
}
