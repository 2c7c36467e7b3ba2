package api

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"net/http"

	"github.com/fhuszti/videos-ms-go/internal/api_context"
	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/port"
)

func GetVideoHandler(svc port.VideoGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.IDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		v, err := svc.GetVideo(r.Context(), id)
		if err != nil {
			WriteServiceError(w, fmt.Sprintf("Could not get details of video #%s", id), err)
			return
		}

		raw, err := json.Marshal(v)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Could not encode video details", err)
			return
		}
		etag := fmt.Sprintf("\"%08x\"", crc32.ChecksumIEEE(raw))

		w.Header().Set("ETag", etag)
		// status may still move while the video is in flight
		if v.Status.IsTerminal() {
			w.Header().Set("Cache-Control", "public, max-age=300")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			logger.Infof(r.Context(), "✅  Returning cached video #%s", id)
			return
		}

		RespondRawJSON(w, http.StatusOK, raw)
		logger.Infof(r.Context(), "✅  Successfully returned details for video #%s", id)
	}
}
