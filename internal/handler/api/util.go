package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/usecase/video"
	"github.com/fhuszti/videos-ms-go/internal/validation"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, status int, msg string, err error) {
	ctx := context.Background()
	if err != nil {
		logger.Errorf(ctx, "❌  %s: %v", msg, err)
	} else {
		logger.Error(ctx, "❌  "+msg)
	}
	w.Header().Set("Cache-Control", "no-store, max-age=0, must-revalidate")
	RespondJSON(w, status, ErrorResponse{Error: msg})
}

// WriteServiceError picks the status code for an error coming out of a video use case.
func WriteServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, video.ErrVideoNotFound), errors.Is(err, video.ErrObjectNotFound):
		WriteError(w, http.StatusNotFound, "Video not found", nil)
	case errors.Is(err, video.ErrJobNotScheduled):
		WriteError(w, http.StatusServiceUnavailable, msg+": transcoding could not be scheduled, retry later", err)
	default:
		WriteError(w, http.StatusInternalServerError, msg, err)
	}
}

func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf(context.Background(), "❌  Failed to encode JSON response: %v", err)
	}
}

func RespondRawJSON(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		logger.Errorf(context.Background(), "❌  Failed to write JSON payload: %v", err)
	}
}

// respondValidationErrors writes the field -> tag map produced by the validator.
func respondValidationErrors(ctx context.Context, w http.ResponseWriter, errs error) {
	errsJSON, err := validation.ErrorsToJson(errs)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Validation error (could not encode details)", err)
		return
	}
	RespondRawJSON(w, http.StatusBadRequest, []byte(errsJSON))
	logger.Warnf(ctx, "❌  Validation failed: %s", errsJSON)
}
