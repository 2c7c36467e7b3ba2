package mock

import (
	"context"
	"sync"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// Cache implements cache behaviour for tests.
type Cache struct {
	mu sync.Mutex

	// stored values
	VideoOut []byte

	// captured inputs
	GotTTL     time.Duration
	DeletedIDs []uuid.UUID

	// errors
	GetVideoErr error
	DelVideoErr error

	// call flags
	GetVideoCalled bool
	SetVideoCalled bool
	DelVideoCalled bool
}

func (c *Cache) GetVideoDetails(ctx context.Context, id uuid.UUID) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetVideoCalled = true
	if c.GetVideoErr != nil {
		return nil, c.GetVideoErr
	}
	return c.VideoOut, nil
}

func (c *Cache) SetVideoDetails(ctx context.Context, id uuid.UUID, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetVideoCalled = true
	c.VideoOut = data
	c.GotTTL = ttl
}

func (c *Cache) DeleteVideoDetails(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DelVideoCalled = true
	c.DeletedIDs = append(c.DeletedIDs, id)
	return c.DelVideoErr
}
