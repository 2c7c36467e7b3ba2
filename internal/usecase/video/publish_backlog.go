package video

import (
	"context"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/task"
)

type backlogPublisherSrv struct {
	repo   port.VideoRepository
	strg   port.Storage
	tasks  port.TaskDispatcher
	expiry time.Duration
	minAge time.Duration
}

// compile-time check: *backlogPublisherSrv must satisfy port.BacklogPublisher
var _ port.BacklogPublisher = (*backlogPublisherSrv)(nil)

// NewBacklogPublisher constructs a BacklogPublisher implementation.
func NewBacklogPublisher(repo port.VideoRepository, strg port.Storage, tasks port.TaskDispatcher, expiry, minAge time.Duration) port.BacklogPublisher {
	return &backlogPublisherSrv{repo: repo, strg: strg, tasks: tasks, expiry: expiry, minAge: minAge}
}

// PublishBacklog publishes a fresh job for every video still pending after minAge.
// The download URL is signed again since the original one may have expired.
// Failures are logged per video and do not stop the run.
func (s *backlogPublisherSrv) PublishBacklog(ctx context.Context) error {
	cutoff := time.Now().Add(-s.minAge)
	videos, err := s.repo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if len(videos) == 0 {
		logger.Info(ctx, "no pending videos found to republish")
	}

	for _, v := range videos {
		url, err := s.strg.GeneratePresignedDownloadURL(ctx, v.Bucket, v.ObjectKey, s.expiry)
		if err != nil {
			logger.Warnf(ctx, "failed to sign download url for video #%s: %v", v.ID, err)
			continue
		}

		msg := task.NewTranscodeJobMessage(v.ID, v.Bucket, v.ObjectKey, v.SizeBytes, url, v.Title, v.RoomID)
		if err := s.tasks.PublishTranscodeJob(ctx, msg); err != nil {
			logger.Warnf(ctx, "failed to republish transcode job for video #%s: %v", v.ID, err)
			continue
		}
		logger.Infof(ctx, "republished transcode job for video #%s", v.ID)
	}
	return nil
}
