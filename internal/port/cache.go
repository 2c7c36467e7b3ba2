package port

import (
	"context"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// Cache provides caching capabilities for video retrieval.
type Cache interface {
	GetVideoDetails(ctx context.Context, id uuid.UUID) ([]byte, error)
	SetVideoDetails(ctx context.Context, id uuid.UUID, data []byte, ttl time.Duration)
	DeleteVideoDetails(ctx context.Context, id uuid.UUID) error
}
