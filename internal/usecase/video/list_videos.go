package video

import (
	"context"

	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

type videoListerSrv struct {
	repo port.VideoRepository
}

func NewVideoLister(repo port.VideoRepository) port.VideoLister {
	return &videoListerSrv{repo: repo}
}

func (s *videoListerSrv) ListVideos(ctx context.Context, roomID *uuid.UUID) ([]*model.Video, error) {
	return s.repo.ListByRoom(ctx, roomID)
}
