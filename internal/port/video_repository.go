package port

import (
	"context"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// VideoRepository defines persistence operations for videos.
// The Mark* methods are conditional on the current status and never move a video backwards.
type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)
	ListByRoom(ctx context.Context, roomID *uuid.UUID) ([]*model.Video, error)
	ListPendingBefore(ctx context.Context, before time.Time) ([]*model.Video, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkReady(ctx context.Context, id uuid.UUID, hlsURL string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}
