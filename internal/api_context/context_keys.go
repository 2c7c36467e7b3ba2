package api_context

import (
	"context"

	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

type ctxKey string

const (
	IDKey         ctxKey = "id"
	AuthUserIDKey ctxKey = "authUserID"
	AuthRolesKey  ctxKey = "authRoles"
	JobVideoIDKey ctxKey = "jobVideoID"
	JobAttemptKey ctxKey = "jobAttempt"
)

func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(IDKey).(uuid.UUID)
	return id, ok
}

func AuthUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AuthUserIDKey).(string)
	return id, ok && id != ""
}

func AuthRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(AuthRolesKey).([]string)
	return roles, ok
}

// WithJobVideoID tags ctx with the video a transcode job is working on so log
// lines emitted deeper in the call stack carry it.
func WithJobVideoID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, JobVideoIDKey, id)
}

func JobVideoIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(JobVideoIDKey).(uuid.UUID)
	return id, ok
}

// WithJobAttempt records which delivery of a job message is being handled.
func WithJobAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, JobAttemptKey, attempt)
}

func JobAttemptFromContext(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(JobAttemptKey).(int)
	return n, ok && n > 0
}
