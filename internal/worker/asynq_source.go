package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

var errRequeued = errors.New("transcode job requeued")

// AsynqSource bridges asynq's callback API to a channel of deliveries. Serve it
// with NewServerConfig so each consumer has at most one delivery in flight.
type AsynqSource struct {
	out chan Delivery
}

// compile-time check: *AsynqSource must satisfy asynq.Handler
var _ asynq.Handler = (*AsynqSource)(nil)

func NewAsynqSource() *AsynqSource {
	return &AsynqSource{out: make(chan Delivery)}
}

// Deliveries is the channel consumers read from.
func (s *AsynqSource) Deliveries() <-chan Delivery {
	return s.out
}

// ProcessTask hands the task to a consumer and blocks until it is resolved.
// Returning nil removes the task, a plain error schedules a retry and
// asynq.SkipRetry archives it. A released task is held until asynq cancels ctx:
// its shutdown abort puts the task back on the queue with its retry count
// untouched, which no return value can do.
func (s *AsynqSource) ProcessTask(ctx context.Context, t *asynq.Task) error {
	retried, _ := asynq.GetRetryCount(ctx)
	d := newTaskDelivery(t.Payload(), retried+1)

	select {
	case s.out <- d:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case r := <-d.done:
		switch r.kind {
		case resolvedAck:
			return nil
		case resolvedRequeue:
			return fmt.Errorf("%w on attempt %d: %v", errRequeued, d.attempt, r.reason)
		case resolvedRelease:
			<-ctx.Done()
			return ctx.Err()
		default:
			return fmt.Errorf("transcode job discarded on attempt %d: %v: %w", d.attempt, r.reason, asynq.SkipRetry)
		}
	case <-ctx.Done():
		// asynq is shutting down or its backstop timeout fired; the task goes back to the queue
		return ctx.Err()
	}
}
