package video

import "errors"

var (
	ErrObjectNotFound = errors.New("storage: object not found")
	ErrBucketNotFound = errors.New("storage: bucket not found")
	ErrUnauthorized   = errors.New("storage: unauthorized")
	ErrStorage        = errors.New("storage: internal error")

	ErrVideoNotFound        = errors.New("video not found")
	ErrVideoAlreadyResolved = errors.New("video already resolved")
	ErrStatusConflict       = errors.New("video status transition not allowed")
	ErrUnknownOutcome       = errors.New("unknown job outcome")
)

// ErrJobNotScheduled means the video was stored and recorded as pending but
// its transcode job could not be published.
var ErrJobNotScheduled = errors.New("transcode job could not be scheduled")
