package mock

import (
	"context"

	"github.com/fhuszti/videos-ms-go/internal/task"
)

// Dispatcher implements task dispatching for tests.
type Dispatcher struct {
	Published  []task.TranscodeJobMessage
	PublishErr error
}

func (m *Dispatcher) PublishTranscodeJob(ctx context.Context, msg task.TranscodeJobMessage) error {
	m.Published = append(m.Published, msg)
	return m.PublishErr
}
