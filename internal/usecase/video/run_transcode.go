package video

import (
	"context"
	"fmt"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/task"
)

type transcodeRunnerSrv struct {
	strg   port.Storage
	tc     port.Transcoder
	bucket string
	expiry time.Duration
}

// compile-time check: *transcodeRunnerSrv must satisfy port.TranscodeRunner
var _ port.TranscodeRunner = (*transcodeRunnerSrv)(nil)

// NewTranscodeRunner constructs a TranscodeRunner writing HLS output into bucket.
func NewTranscodeRunner(strg port.Storage, tc port.Transcoder, bucket string, expiry time.Duration) port.TranscodeRunner {
	return &transcodeRunnerSrv{strg: strg, tc: tc, bucket: bucket, expiry: expiry}
}

// Run grants the transcoder a signed PUT on the playlist key and waits for it.
// Re-running for the same video overwrites the same key.
func (s *transcodeRunnerSrv) Run(ctx context.Context, job task.TranscodeJob) error {
	key := PlaylistKey(job.VideoID)
	uploadURL, err := s.strg.GeneratePresignedUploadURL(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return fmt.Errorf("could not sign upload url for video #%s: %w", job.VideoID, err)
	}

	logger.Infof(ctx, "transcoding %q from %s/%s...", job.Title, job.Bucket, job.ObjectKey)
	start := time.Now()
	if err := s.tc.Transcode(ctx, job.DownloadURL, uploadURL, job.VideoID); err != nil {
		return err
	}
	logger.Infof(ctx, "transcoded video #%s in %s", job.VideoID, time.Since(start).Round(time.Millisecond))
	return nil
}
