package video

import (
	"context"
	"fmt"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/task"
)

type videoUploaderSrv struct {
	repo    port.VideoRepository
	strg    port.Storage
	tasks   port.TaskDispatcher
	bucket  string
	expiry  time.Duration
	uuidGen port.UUIDGen
}

// compile-time check: *videoUploaderSrv must satisfy port.VideoUploader
var _ port.VideoUploader = (*videoUploaderSrv)(nil)

// NewVideoUploader constructs a VideoUploader implementation.
func NewVideoUploader(repo port.VideoRepository, strg port.Storage, tasks port.TaskDispatcher, bucket string, expiry time.Duration, uuidGen port.UUIDGen) port.VideoUploader {
	return &videoUploaderSrv{repo: repo, strg: strg, tasks: tasks, bucket: bucket, expiry: expiry, uuidGen: uuidGen}
}

// UploadVideo stores the file, records the video as pending and publishes its
// transcode job once. If publishing fails the video stays pending and the
// error wraps ErrJobNotScheduled.
func (s *videoUploaderSrv) UploadVideo(ctx context.Context, in port.UploadVideoInput) (port.UploadVideoOutput, error) {
	id := s.uuidGen()
	key := SourceKey(in.RoomID, id, in.Filename)

	opts := map[string]string{"Content-Type": in.ContentType}
	if err := s.strg.SaveFile(ctx, s.bucket, key, in.File, in.Size, opts); err != nil {
		return port.UploadVideoOutput{}, fmt.Errorf("could not store video file: %w", err)
	}

	downloadURL, err := s.strg.GeneratePresignedDownloadURL(ctx, s.bucket, key, s.expiry)
	if err != nil {
		return port.UploadVideoOutput{}, fmt.Errorf("could not sign download url: %w", err)
	}

	v := &model.Video{
		ID:          id,
		RoomID:      in.RoomID,
		Title:       in.Title,
		Description: in.Description,
		Bucket:      s.bucket,
		ObjectKey:   key,
		SizeBytes:   in.Size,
		Status:      model.VideoStatusPending,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return port.UploadVideoOutput{}, err
	}

	msg := task.NewTranscodeJobMessage(id, s.bucket, key, in.Size, downloadURL, in.Title, in.RoomID)
	if err := s.tasks.PublishTranscodeJob(ctx, msg); err != nil {
		logger.Errorf(ctx, "video #%s left pending: %v", id, err)
		return port.UploadVideoOutput{}, fmt.Errorf("%w: %w", ErrJobNotScheduled, err)
	}

	return port.UploadVideoOutput{
		VideoID:      id,
		Title:        v.Title,
		Status:       v.Status,
		PresignedURL: downloadURL,
	}, nil
}
