package port

import (
	"context"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// Transcoder runs the external HLS encoder against a pair of signed URLs.
type Transcoder interface {
	Transcode(ctx context.Context, downloadURL, uploadURL string, videoID uuid.UUID) error
}
