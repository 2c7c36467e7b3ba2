package worker

import (
	"context"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/hibiken/asynq"
)

const maxShutdownTimeout = 10 * time.Second

// NewServerConfig is the asynq setup for transcode consumers: a single queue and
// one in-flight task per consumer. The shutdown grace period never exceeds the
// job deadline, so it ends before the backstop timeout of any in-flight task.
func NewServerConfig(queue string, consumers int, deadline time.Duration) asynq.Config {
	return asynq.Config{
		Concurrency:     consumers,
		Queues:          map[string]int{queue: 1},
		ShutdownTimeout: min(maxShutdownTimeout, deadline),
		RetryDelayFunc: func(n int, err error, t *asynq.Task) time.Duration {
			return min(time.Duration(n+1)*5*time.Second, time.Minute)
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnf(ctx, "⚠️  Task %s not completed (retry %d/%d): %v", t.Type(), retried, maxRetry, err)
		}),
	}
}

// Drain shuts srv down, then stops the consumers. Tasks still in flight when the
// grace period ends go back to pending with their retry count unchanged; the
// consumers holding them release them once stopped.
func Drain(srv *asynq.Server, stopConsumers func()) {
	srv.Shutdown()
	stopConsumers()
}
