package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/fhuszti/videos-ms-go/internal/validation"
)

const (
	MaxUploadBytes int64 = 500 << 20
	// room for the other form fields and the multipart framing
	formOverheadBytes int64 = 1 << 20
	formMemoryBytes   int64 = 32 << 20
)

type UploadVideoRequest struct {
	RoomID      string `json:"roomId" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	ContentType string `json:"contentType" validate:"required,videomime"`
	Size        int64  `json:"size" validate:"gt=0"`
}

func UploadVideoHandler(svc port.VideoUploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+formOverheadBytes)
		if err := r.ParseMultipartForm(formMemoryBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, http.StatusRequestEntityTooLarge, "Video exceeds the 500MB upload limit", nil)
				return
			}
			WriteError(w, http.StatusBadRequest, "Invalid request", fmt.Errorf("invalid multipart form: %w", err))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()

		file, header, err := r.FormFile("video")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "A video file is required", err)
			return
		}
		defer file.Close()

		if header.Size > MaxUploadBytes {
			WriteError(w, http.StatusRequestEntityTooLarge, "Video exceeds the 500MB upload limit", nil)
			return
		}

		req := UploadVideoRequest{
			RoomID:      r.FormValue("roomId"),
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
		}
		if errs := validation.ValidateStruct(req); errs != nil {
			respondValidationErrors(r.Context(), w, errs)
			return
		}

		roomID, err := uuid.Parse(req.RoomID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request", fmt.Errorf("invalid UUID: %w", err))
			return
		}

		in := port.UploadVideoInput{
			RoomID:      roomID,
			Title:       req.Title,
			Filename:    header.Filename,
			ContentType: req.ContentType,
			Size:        req.Size,
			File:        file,
		}
		if req.Description != "" {
			in.Description = &req.Description
		}

		out, err := svc.UploadVideo(r.Context(), in)
		if err != nil {
			WriteServiceError(w, "Could not upload video", err)
			return
		}

		RespondJSON(w, http.StatusCreated, out)
		logger.Infof(r.Context(), "✅  Successfully uploaded video #%s to room #%s", out.VideoID, roomID)
	}
}
