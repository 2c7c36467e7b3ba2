package model

import (
	"time"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusFailed     VideoStatus = "failed"
)

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Transitions only go forward and never skip processing.
func (s VideoStatus) CanTransitionTo(next VideoStatus) bool {
	switch s {
	case VideoStatusPending:
		return next == VideoStatusProcessing
	case VideoStatusProcessing:
		return next == VideoStatusReady || next == VideoStatusFailed
	default:
		return false
	}
}

// IsTerminal is true once the video will never change status again.
func (s VideoStatus) IsTerminal() bool {
	return s == VideoStatusReady || s == VideoStatusFailed
}

type Video struct {
	ID             uuid.UUID   `json:"id"`
	RoomID         uuid.UUID   `json:"room_id"`
	Title          string      `json:"title"`
	Description    *string     `json:"description"`
	Bucket         string      `json:"-"`
	ObjectKey      string      `json:"-"`
	SizeBytes      int64       `json:"size_bytes"`
	Status         VideoStatus `json:"status"`
	HLSURL         *string     `json:"hls_url"`
	FailureMessage *string     `json:"failure_message,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// JobOutcome is how a transcode job ended, as seen by the status reconciler.
type JobOutcome string

const (
	JobOutcomeAcked     JobOutcome = "acked"
	JobOutcomeDiscarded JobOutcome = "discarded"
	JobOutcomeExhausted JobOutcome = "exhausted"
)
