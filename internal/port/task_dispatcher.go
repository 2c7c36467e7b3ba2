package port

import (
	"context"

	"github.com/fhuszti/videos-ms-go/internal/task"
)

// TaskDispatcher publishes transcode jobs onto the queue.
type TaskDispatcher interface {
	PublishTranscodeJob(ctx context.Context, msg task.TranscodeJobMessage) error
}
