package task

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/fhuszti/videos-ms-go/internal/validation"
	"github.com/hibiken/asynq"
)

const (
	// TypeTranscodeVideo routes the task to the transcode consumer.
	TypeTranscodeVideo = "video:transcode"
	// EventObjectCreatedPut is the only job kind the consumer knows how to process.
	EventObjectCreatedPut = "s3:ObjectCreated:Put"
)

var (
	ErrUnrecognisedEvent = errors.New("unrecognised event")
	ErrMalformedMessage  = errors.New("malformed transcode job message")
)

// TranscodeJobMessage is the wire format of a transcode job. It is built once
// per upload and never modified afterwards.
type TranscodeJobMessage struct {
	EventName string               `json:"eventName"`
	Records   []TranscodeJobRecord `json:"Records" validate:"len=1,dive"`
}

type TranscodeJobRecord struct {
	S3           S3Entity `json:"s3"`
	VideoID      string   `json:"videoId" validate:"required,uuid"`
	PresignedURL string   `json:"presignedUrl" validate:"required,url"`
	Title        string   `json:"title"`
	RoomID       string   `json:"roomId"`
}

type S3Entity struct {
	Bucket S3Bucket `json:"bucket"`
	Object S3Object `json:"object"`
}

type S3Bucket struct {
	Name string `json:"name" validate:"required"`
}

type S3Object struct {
	Key  string `json:"key" validate:"required"`
	Size int64  `json:"size" validate:"gte=0"`
}

// TranscodeJob is a validated job message with its single record flattened.
type TranscodeJob struct {
	Message     TranscodeJobMessage
	VideoID     uuid.UUID
	Bucket      string
	ObjectKey   string
	Size        int64
	DownloadURL string
	Title       string
	RoomID      string
}

// NewTranscodeJobMessage builds the message for a freshly uploaded video.
func NewTranscodeJobMessage(videoID uuid.UUID, bucket, objectKey string, size int64, downloadURL, title string, roomID uuid.UUID) TranscodeJobMessage {
	return TranscodeJobMessage{
		EventName: EventObjectCreatedPut,
		Records: []TranscodeJobRecord{{
			S3: S3Entity{
				Bucket: S3Bucket{Name: bucket},
				Object: S3Object{Key: objectKey, Size: size},
			},
			VideoID:      videoID.String(),
			PresignedURL: downloadURL,
			Title:        title,
			RoomID:       roomID.String(),
		}},
	}
}

// NewTranscodeVideoTask creates an Asynq task carrying the encoded message.
func NewTranscodeVideoTask(msg TranscodeJobMessage) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("could not marshal transcode-job payload: %w", err)
	}
	return asynq.NewTask(TypeTranscodeVideo, data), nil
}

// ParseTranscodeJob decodes and validates a delivered payload.
// The discriminator is checked before anything else so foreign events are
// reported as ErrUnrecognisedEvent even when their records do not match ours.
func ParseTranscodeJob(payload []byte) (TranscodeJob, error) {
	var msg TranscodeJobMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return TranscodeJob{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.EventName != EventObjectCreatedPut {
		return TranscodeJob{}, fmt.Errorf("%w: %q", ErrUnrecognisedEvent, msg.EventName)
	}
	if err := validation.ValidateStruct(msg); err != nil {
		return TranscodeJob{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	rec := msg.Records[0]
	id, err := uuid.Parse(rec.VideoID)
	if err != nil {
		return TranscodeJob{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	return TranscodeJob{
		Message:     msg,
		VideoID:     id,
		Bucket:      rec.S3.Bucket.Name,
		ObjectKey:   rec.S3.Object.Key,
		Size:        rec.S3.Object.Size,
		DownloadURL: rec.PresignedURL,
		Title:       rec.Title,
		RoomID:      rec.RoomID,
	}, nil
}
