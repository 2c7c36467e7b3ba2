package worker

import (
	"errors"
	"sync"
)

var ErrAlreadyResolved = errors.New("delivery already resolved")

// Delivery is one in-flight instance of a job message. Exactly one of Ack or
// Nack takes effect; any later call returns ErrAlreadyResolved.
type Delivery interface {
	Body() []byte
	// Attempt is 1 on first delivery and grows with every redelivery.
	Attempt() int
	Ack() error
	// Nack gives the message back to the broker for redelivery when requeue is
	// true, or drops it to the dead-letter path otherwise. reason is kept by
	// the broker for operators.
	Nack(requeue bool, reason error) error
	// Release hands the message back because the worker is stopping. It does
	// not count as an attempt.
	Release() error
}

type resolutionKind int

const (
	resolvedAck resolutionKind = iota + 1
	resolvedRequeue
	resolvedDiscard
	resolvedRelease
)

type resolution struct {
	kind   resolutionKind
	reason error
}

// taskDelivery is resolved from the consumer goroutine and observed by the
// broker goroutine waiting on done.
type taskDelivery struct {
	body    []byte
	attempt int
	once    sync.Once
	done    chan resolution
}

func newTaskDelivery(body []byte, attempt int) *taskDelivery {
	return &taskDelivery{body: body, attempt: attempt, done: make(chan resolution, 1)}
}

func (d *taskDelivery) Body() []byte { return d.body }
func (d *taskDelivery) Attempt() int { return d.attempt }

func (d *taskDelivery) Ack() error {
	return d.resolve(resolution{kind: resolvedAck})
}

func (d *taskDelivery) Nack(requeue bool, reason error) error {
	if requeue {
		return d.resolve(resolution{kind: resolvedRequeue, reason: reason})
	}
	return d.resolve(resolution{kind: resolvedDiscard, reason: reason})
}

func (d *taskDelivery) Release() error {
	return d.resolve(resolution{kind: resolvedRelease})
}

func (d *taskDelivery) resolve(r resolution) error {
	err := ErrAlreadyResolved
	d.once.Do(func() {
		d.done <- r
		err = nil
	})
	return err
}
