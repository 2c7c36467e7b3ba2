package video

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

// DetailsCacheTTL bounds how stale a cached video may be. Status changes also
// invalidate the entry.
const DetailsCacheTTL = 5 * time.Minute

type videoGetterSrv struct {
	repo  port.VideoRepository
	cache port.Cache
}

// compile-time check: *videoGetterSrv must satisfy port.VideoGetter
var _ port.VideoGetter = (*videoGetterSrv)(nil)

func NewVideoGetter(repo port.VideoRepository, cache port.Cache) port.VideoGetter {
	return &videoGetterSrv{repo: repo, cache: cache}
}

// GetVideo reads through the cache. Cached copies carry only the public fields.
func (s *videoGetterSrv) GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	data, err := s.cache.GetVideoDetails(ctx, id)
	if err != nil {
		logger.Warnf(ctx, "cache lookup failed for video #%s: %v", id, err)
	}
	if data != nil {
		var v model.Video
		if err := json.Unmarshal(data, &v); err == nil {
			return &v, nil
		}
		logger.Warnf(ctx, "ignoring unreadable cache entry for video #%s", id)
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(v); err == nil {
		s.cache.SetVideoDetails(ctx, id, data, DetailsCacheTTL)
	}
	return v, nil
}
