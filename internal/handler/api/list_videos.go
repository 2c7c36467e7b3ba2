package api

import (
	"net/http"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

type ListVideosResponse struct {
	Videos []*model.Video `json:"videos"`
}

func ListVideosHandler(svc port.VideoLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var roomID *uuid.UUID
		if raw := r.URL.Query().Get("roomId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "roomId must be a valid UUID", nil)
				return
			}
			roomID = &id
		}

		videos, err := svc.ListVideos(r.Context(), roomID)
		if err != nil {
			WriteServiceError(w, "Could not list videos", err)
			return
		}
		if videos == nil {
			videos = []*model.Video{}
		}

		w.Header().Set("Cache-Control", "no-cache")
		RespondJSON(w, http.StatusOK, ListVideosResponse{Videos: videos})
		logger.Infof(r.Context(), "✅  Successfully listed %d videos", len(videos))
	}
}
