package mock

import (
	"context"
	"sync"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// Transcoder implements port.Transcoder for tests. Delay simulates a slow
// encode and honours ctx like a killed process would.
type Transcoder struct {
	mu sync.Mutex

	Err   error
	Delay time.Duration

	Calls          int
	GotDownloadURL string
	GotUploadURL   string
	GotVideoID     uuid.UUID
}

func (m *Transcoder) Transcode(ctx context.Context, downloadURL, uploadURL string, videoID uuid.UUID) error {
	m.mu.Lock()
	m.Calls++
	m.GotDownloadURL = downloadURL
	m.GotUploadURL = uploadURL
	m.GotVideoID = videoID
	delay, err := m.Delay, m.Err
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *Transcoder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
