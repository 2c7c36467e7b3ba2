package mock

import (
	"context"
	"sync"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// VideoRepo implements repository operations for tests.
type VideoRepo struct {
	mu sync.Mutex

	VideoRecord *model.Video
	ListOut     []*model.Video

	GetErr            error
	CreateErr         error
	ListErr           error
	MarkProcessingErr error
	MarkReadyErr      error
	MarkFailedErr     error

	GetCalled      bool
	Created        *model.Video
	GotRoomID      *uuid.UUID
	ListBefore     time.Time
	ProcessingIDs  []uuid.UUID
	ReadyIDs       []uuid.UUID
	ReadyURL       string
	FailedIDs      []uuid.UUID
	FailureMessage string

	// statuses written, in call order
	Transitions []model.VideoStatus
}

func (m *VideoRepo) Create(ctx context.Context, v *model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = v
	return m.CreateErr
}

func (m *VideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled = true
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.VideoRecord, nil
}

func (m *VideoRepo) ListByRoom(ctx context.Context, roomID *uuid.UUID) ([]*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GotRoomID = roomID
	return m.ListOut, m.ListErr
}

func (m *VideoRepo) ListPendingBefore(ctx context.Context, before time.Time) ([]*model.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListBefore = before
	return m.ListOut, m.ListErr
}

func (m *VideoRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessingIDs = append(m.ProcessingIDs, id)
	m.Transitions = append(m.Transitions, model.VideoStatusProcessing)
	return m.MarkProcessingErr
}

func (m *VideoRepo) MarkReady(ctx context.Context, id uuid.UUID, hlsURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadyIDs = append(m.ReadyIDs, id)
	m.ReadyURL = hlsURL
	m.Transitions = append(m.Transitions, model.VideoStatusReady)
	return m.MarkReadyErr
}

func (m *VideoRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedIDs = append(m.FailedIDs, id)
	m.FailureMessage = reason
	m.Transitions = append(m.Transitions, model.VideoStatusFailed)
	return m.MarkFailedErr
}
