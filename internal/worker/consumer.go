package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/api_context"
	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/metrics"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/task"
	"github.com/fhuszti/videos-ms-go/internal/usecase/video"
)

// Result is how the consumer resolved a delivery.
type Result string

const (
	ResultAcked     Result = metrics.StateAcked
	ResultSkipped   Result = metrics.StateSkipped
	ResultRequeued  Result = metrics.StateRequeued
	ResultDiscarded Result = metrics.StateDiscarded
	ResultExhausted Result = metrics.StateExhausted
	ResultReleased  Result = metrics.StateReleased
)

// Consumer processes deliveries one at a time. Parallelism comes from running
// more consumers, each behind its own prefetch-1 broker connection.
type Consumer struct {
	runner      port.TranscodeRunner
	reconciler  port.StatusReconciler
	metrics     *metrics.Worker
	deadline    time.Duration
	maxAttempts int
}

func NewConsumer(runner port.TranscodeRunner, reconciler port.StatusReconciler, m *metrics.Worker, deadline time.Duration, maxAttempts int) *Consumer {
	return &Consumer{
		runner:      runner,
		reconciler:  reconciler,
		metrics:     m,
		deadline:    deadline,
		maxAttempts: maxAttempts,
	}
}

// Run handles deliveries serially until ctx is cancelled or the channel is closed.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan Delivery) {
	logger.Info(ctx, "consumer is standing by for jobs...")
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle resolves d exactly once. The job body races the processing deadline:
// a body that has not returned when the deadline fires is abandoned and its
// late result ignored.
func (c *Consumer) Handle(ctx context.Context, d Delivery) Result {
	ctx = api_context.WithJobAttempt(ctx, d.Attempt())
	jobCtx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	job, err := task.ParseTranscodeJob(d.Body())
	if err != nil {
		logger.Warnf(ctx, "⚠️  Dropping delivery (attempt %d): %v", d.Attempt(), err)
		return c.ack(ctx, d, ResultSkipped)
	}
	ctx = api_context.WithJobVideoID(ctx, job.VideoID)
	jobCtx = api_context.WithJobVideoID(jobCtx, job.VideoID)
	logger.Infof(ctx, "picking up transcode job for video #%s (attempt %d/%d)", job.VideoID, d.Attempt(), c.maxAttempts)

	c.metrics.ActiveJobs.Inc()
	defer c.metrics.ActiveJobs.Dec()
	start := time.Now()

	done := make(chan error, 1)
	go func() { done <- c.body(jobCtx, job) }()

	var bodyErr error
	timedOut := false
	select {
	case bodyErr = <-done:
		// a body killed by the deadline reports the kill as its own error
		timedOut = bodyErr != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded)
	case <-jobCtx.Done():
		timedOut = errors.Is(jobCtx.Err(), context.DeadlineExceeded)
		if !timedOut {
			bodyErr = jobCtx.Err()
		}
	}
	c.metrics.TranscodeDuration.Observe(time.Since(start).Seconds())

	switch {
	case timedOut:
		reason := fmt.Errorf("processing deadline of %s exceeded", c.deadline)
		logger.Errorf(ctx, "❌  Discarding transcode job for video #%s: %v", job.VideoID, reason)
		res := c.nack(ctx, d, false, reason, ResultDiscarded)
		c.reconcileFailure(ctx, job, model.JobOutcomeDiscarded, reason)
		return res
	case ctx.Err() != nil:
		// shutting down: hand the job back without spending an attempt
		logger.Warnf(ctx, "⚠️  Worker stopping, releasing transcode job for video #%s", job.VideoID)
		return c.release(ctx, d)
	case errors.Is(bodyErr, video.ErrVideoNotFound), errors.Is(bodyErr, video.ErrVideoAlreadyResolved):
		logger.Warnf(ctx, "⚠️  Skipping transcode job: %v", bodyErr)
		return c.ack(ctx, d, ResultSkipped)
	case bodyErr != nil:
		return c.fail(ctx, d, job, bodyErr)
	}

	// the status is recorded before the ack so a crash in between replays the job
	if err := c.reconciler.OnJobResolved(ctx, job.VideoID, model.JobOutcomeAcked, ""); err != nil {
		return c.fail(ctx, d, job, fmt.Errorf("could not mark video ready: %w", err))
	}
	logger.Infof(ctx, "✅  Successfully transcoded video #%s", job.VideoID)
	return c.ack(ctx, d, ResultAcked)
}

func (c *Consumer) body(ctx context.Context, job task.TranscodeJob) error {
	if err := c.reconciler.OnJobStarted(ctx, job.VideoID); err != nil {
		return err
	}
	return c.runner.Run(ctx, job)
}

// fail requeues until the attempt budget is spent, then dead-letters the job.
func (c *Consumer) fail(ctx context.Context, d Delivery, job task.TranscodeJob, err error) Result {
	if d.Attempt() < c.maxAttempts {
		logger.Warnf(ctx, "⚠️  Attempt %d/%d failed for video #%s, requeueing: %v", d.Attempt(), c.maxAttempts, job.VideoID, err)
		return c.nack(ctx, d, true, err, ResultRequeued)
	}

	logger.Errorf(ctx, "❌  Giving up on video #%s after %d attempts: %v", job.VideoID, d.Attempt(), err)
	res := c.nack(ctx, d, false, err, ResultExhausted)
	c.reconcileFailure(ctx, job, model.JobOutcomeExhausted, err)
	return res
}

func (c *Consumer) reconcileFailure(ctx context.Context, job task.TranscodeJob, outcome model.JobOutcome, cause error) {
	if err := c.reconciler.OnJobResolved(ctx, job.VideoID, outcome, cause.Error()); err != nil {
		logger.Errorf(ctx, "❌  Could not mark video #%s failed: %v", job.VideoID, err)
	}
}

func (c *Consumer) ack(ctx context.Context, d Delivery, res Result) Result {
	if err := d.Ack(); err != nil {
		logger.Errorf(ctx, "could not ack delivery: %v", err)
	}
	c.metrics.Deliveries.WithLabelValues(string(res)).Inc()
	return res
}

func (c *Consumer) nack(ctx context.Context, d Delivery, requeue bool, reason error, res Result) Result {
	if err := d.Nack(requeue, reason); err != nil {
		logger.Errorf(ctx, "could not nack delivery: %v", err)
	}
	c.metrics.Deliveries.WithLabelValues(string(res)).Inc()
	return res
}

func (c *Consumer) release(ctx context.Context, d Delivery) Result {
	if err := d.Release(); err != nil {
		logger.Errorf(ctx, "could not release delivery: %v", err)
	}
	c.metrics.Deliveries.WithLabelValues(string(ResultReleased)).Inc()
	return ResultReleased
}
