package port

import (
	"context"
	"io"

	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/task"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

type UUIDGen func() uuid.UUID

// VideoUploader stores an uploaded video, records it as pending and schedules its transcode job.
type VideoUploader interface {
	UploadVideo(ctx context.Context, in UploadVideoInput) (UploadVideoOutput, error)
}
type UploadVideoInput struct {
	RoomID      uuid.UUID
	Title       string
	Description *string
	Filename    string
	ContentType string
	Size        int64
	File        io.Reader
}
type UploadVideoOutput struct {
	VideoID      uuid.UUID         `json:"videoId"`
	Title        string            `json:"title"`
	Status       model.VideoStatus `json:"status"`
	PresignedURL string            `json:"presignedUrl"`
}

// VideoGetter retrieves a single video.
type VideoGetter interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error)
}

// VideoLister lists videos, optionally restricted to one room.
type VideoLister interface {
	ListVideos(ctx context.Context, roomID *uuid.UUID) ([]*model.Video, error)
}

// TranscodeRunner executes the body of a transcode job.
type TranscodeRunner interface {
	Run(ctx context.Context, job task.TranscodeJob) error
}

// StatusReconciler moves the video record along with the job lifecycle.
type StatusReconciler interface {
	OnJobStarted(ctx context.Context, videoID uuid.UUID) error
	OnJobResolved(ctx context.Context, videoID uuid.UUID, outcome model.JobOutcome, reason string) error
}

// BacklogPublisher re-publishes jobs for uploads stuck in pending.
type BacklogPublisher interface {
	PublishBacklog(ctx context.Context) error
}
