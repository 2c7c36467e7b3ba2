package task

import (
	"context"
	"fmt"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/hibiken/asynq"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher publishes transcode jobs. asynq persists every task in Redis
// before EnqueueContext returns, so a nil error means the job is durable.
type Dispatcher struct {
	client      enqueuer
	queue       string
	maxAttempts int
	deadline    time.Duration
}

// NewDispatcher wraps an asynq client owned by the caller.
// queue, maxAttempts and deadline must be the values the worker consumes with.
func NewDispatcher(client *asynq.Client, queue string, maxAttempts int, deadline time.Duration) *Dispatcher {
	return &Dispatcher{client: client, queue: queue, maxAttempts: maxAttempts, deadline: deadline}
}

// PublishTranscodeJob enqueues exactly one task per call. There is no deduplication,
// and a broker failure is returned to the caller rather than retried here.
func (d *Dispatcher) PublishTranscodeJob(ctx context.Context, msg TranscodeJobMessage) error {
	t, err := NewTranscodeVideoTask(msg)
	if err != nil {
		return err
	}

	retries := d.maxAttempts - 1
	if retries < 0 {
		retries = 0
	}

	info, err := d.client.EnqueueContext(ctx, t,
		asynq.Queue(d.queue),
		asynq.MaxRetry(retries),
		// the consumer enforces the real deadline, this only reclaims tasks from a hung handler
		asynq.Timeout(2*d.deadline),
	)
	if err != nil {
		return fmt.Errorf("could not publish transcode job: %w", err)
	}

	logger.Infof(ctx, "transcode job %s published on queue %q", info.ID, info.Queue)
	return nil
}
