package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/metrics"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/task"
	msuuid "github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	videoID = msuuid.UUID(uuid.MustParse("aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"))
	roomID  = msuuid.UUID(uuid.MustParse("11111111-2222-4333-8444-555555555555"))
)

func jobPayload(t *testing.T, id msuuid.UUID) []byte {
	t.Helper()
	tsk, err := task.NewTranscodeVideoTask(task.NewTranscodeJobMessage(id, "videos", "uploads/room/clip.mp4", 1024,
		"http://minio:9000/videos/uploads/room/clip.mp4?X-Amz-Signature=abc", "Intro", roomID))
	if err != nil {
		t.Fatalf("could not build payload: %v", err)
	}
	return tsk.Payload()
}

// fakeDelivery records every resolution attempt, including rejected ones.
type fakeDelivery struct {
	body    []byte
	attempt int

	mu       sync.Mutex
	acks     int
	releases int
	nacks    []bool
	reasons  []error
	resolved bool
}

func (d *fakeDelivery) Body() []byte { return d.body }
func (d *fakeDelivery) Attempt() int { return d.attempt }

func (d *fakeDelivery) Ack() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acks++
	if d.resolved {
		return ErrAlreadyResolved
	}
	d.resolved = true
	return nil
}

func (d *fakeDelivery) Nack(requeue bool, reason error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nacks = append(d.nacks, requeue)
	d.reasons = append(d.reasons, reason)
	if d.resolved {
		return ErrAlreadyResolved
	}
	d.resolved = true
	return nil
}

func (d *fakeDelivery) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releases++
	if d.resolved {
		return ErrAlreadyResolved
	}
	d.resolved = true
	return nil
}

func (d *fakeDelivery) counts() (int, []bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acks, append([]bool(nil), d.nacks...)
}

// fakeRunner ignores ctx on purpose when ignoreCtx is set, like a transcoder
// that keeps going after the worker gave up on it.
type fakeRunner struct {
	delay     time.Duration
	ignoreCtx bool
	err       error

	calls    atomic.Int32
	finished atomic.Int32
	active   atomic.Int32
	peak     atomic.Int32
}

func (r *fakeRunner) Run(ctx context.Context, job task.TranscodeJob) error {
	r.calls.Add(1)
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if r.delay > 0 {
		if r.ignoreCtx {
			time.Sleep(r.delay)
		} else {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	r.finished.Add(1)
	return r.err
}

type resolvedCall struct {
	id      msuuid.UUID
	outcome model.JobOutcome
	reason  string
}

type fakeReconciler struct {
	startErr   error
	resolveErr error

	mu       sync.Mutex
	started  []msuuid.UUID
	resolved []resolvedCall
}

func (r *fakeReconciler) OnJobStarted(ctx context.Context, id msuuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
	return r.startErr
}

func (r *fakeReconciler) OnJobResolved(ctx context.Context, id msuuid.UUID, outcome model.JobOutcome, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, resolvedCall{id: id, outcome: outcome, reason: reason})
	return r.resolveErr
}

func (r *fakeReconciler) resolvedCalls() []resolvedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]resolvedCall(nil), r.resolved...)
}

func newTestConsumer(runner *fakeRunner, rec *fakeReconciler, deadline time.Duration, maxAttempts int) *Consumer {
	return NewConsumer(runner, rec, metrics.NewWorker(prometheus.NewRegistry()), deadline, maxAttempts)
}
