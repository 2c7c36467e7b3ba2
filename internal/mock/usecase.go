package mock

import (
	"context"

	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// VideoUploader implements port.VideoUploader for tests.
type VideoUploader struct {
	Out    port.UploadVideoOutput
	Err    error
	Called bool
	GotIn  port.UploadVideoInput
}

func (m *VideoUploader) UploadVideo(ctx context.Context, in port.UploadVideoInput) (port.UploadVideoOutput, error) {
	m.Called = true
	m.GotIn = in
	return m.Out, m.Err
}

// VideoGetter implements port.VideoGetter for tests.
type VideoGetter struct {
	Out    *model.Video
	Err    error
	Called bool
	GotID  uuid.UUID
}

func (m *VideoGetter) GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	m.Called = true
	m.GotID = id
	return m.Out, m.Err
}

// VideoLister implements port.VideoLister for tests.
type VideoLister struct {
	Out       []*model.Video
	Err       error
	Called    bool
	GotRoomID *uuid.UUID
}

func (m *VideoLister) ListVideos(ctx context.Context, roomID *uuid.UUID) ([]*model.Video, error) {
	m.Called = true
	m.GotRoomID = roomID
	return m.Out, m.Err
}
