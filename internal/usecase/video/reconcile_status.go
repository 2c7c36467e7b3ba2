package video

import (
	"context"
	"errors"
	"fmt"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

type statusReconcilerSrv struct {
	repo   port.VideoRepository
	cache  port.Cache
	strg   port.Storage
	bucket string
}

// compile-time check: *statusReconcilerSrv must satisfy port.StatusReconciler
var _ port.StatusReconciler = (*statusReconcilerSrv)(nil)

// NewStatusReconciler constructs a StatusReconciler. bucket must be the one the
// transcode runner writes into.
func NewStatusReconciler(repo port.VideoRepository, cache port.Cache, strg port.Storage, bucket string) port.StatusReconciler {
	return &statusReconcilerSrv{repo: repo, cache: cache, strg: strg, bucket: bucket}
}

// OnJobStarted moves a pending video to processing. A redelivered job finds the
// video already processing, which is fine. A video that already reached a
// terminal status yields ErrVideoAlreadyResolved and must not be transcoded again.
func (s *statusReconcilerSrv) OnJobStarted(ctx context.Context, id uuid.UUID) error {
	err := s.repo.MarkProcessing(ctx, id)
	if err == nil {
		s.invalidate(ctx, id)
		return nil
	}
	if !errors.Is(err, ErrStatusConflict) {
		return err
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case v.Status == model.VideoStatusProcessing:
		logger.Infof(ctx, "video #%s is already processing, resuming", id)
		return nil
	case v.Status.IsTerminal():
		return fmt.Errorf("%w: video #%s is %q", ErrVideoAlreadyResolved, id, v.Status)
	default:
		return fmt.Errorf("%w: video #%s is %q", ErrStatusConflict, id, v.Status)
	}
}

// OnJobResolved closes the lifecycle. Calling it again with the outcome that
// was already recorded is a no-op.
func (s *statusReconcilerSrv) OnJobResolved(ctx context.Context, id uuid.UUID, outcome model.JobOutcome, reason string) error {
	var err error
	switch outcome {
	case model.JobOutcomeAcked:
		hlsURL := s.strg.PublicURL(s.bucket, PlaylistKey(id))
		err = s.repo.MarkReady(ctx, id, hlsURL)
		if errors.Is(err, ErrStatusConflict) {
			err = s.alreadyIn(ctx, id, model.VideoStatusReady, err)
		}
	case model.JobOutcomeDiscarded, model.JobOutcomeExhausted:
		if reason == "" {
			reason = string(outcome)
		}
		// a worker owned the job even if it died before recording it, so the
		// video passes through processing on its way to failed
		if perr := s.repo.MarkProcessing(ctx, id); perr != nil && !errors.Is(perr, ErrStatusConflict) {
			return perr
		}
		err = s.repo.MarkFailed(ctx, id, reason)
		if errors.Is(err, ErrStatusConflict) {
			err = s.alreadyIn(ctx, id, model.VideoStatusFailed, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
	if err != nil {
		return err
	}

	logger.Infof(ctx, "video #%s reconciled after job outcome %q", id, outcome)
	s.invalidate(ctx, id)
	return nil
}

// alreadyIn turns a conflict into success when the video already has the wanted status.
func (s *statusReconcilerSrv) alreadyIn(ctx context.Context, id uuid.UUID, want model.VideoStatus, conflict error) error {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v.Status == want {
		return nil
	}
	return fmt.Errorf("%w (current status %q)", conflict, v.Status)
}

func (s *statusReconcilerSrv) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.DeleteVideoDetails(ctx, id); err != nil {
		logger.Warnf(ctx, "could not invalidate cache for video #%s: %v", id, err)
	}
}
