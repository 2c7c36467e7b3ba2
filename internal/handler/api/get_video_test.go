package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/api_context"
	"github.com/fhuszti/videos-ms-go/internal/mock"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/usecase/video"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

func sampleVideo(id uuid.UUID, status model.VideoStatus) *model.Video {
	v := &model.Video{
		ID:        id,
		RoomID:    uuid.NewUUID(),
		Title:     "Lecture 1",
		Status:    status,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if status == model.VideoStatusReady {
		u := "https://cdn.example.com/videos/hls/" + id.String() + "/playlist.m3u8"
		v.HLSURL = &u
	}
	return v
}

func TestGetVideoHandler(t *testing.T) {
	id := uuid.NewUUID()

	tests := []struct {
		name             string
		ctxID            bool
		svcOut           *model.Video
		svcErr           error
		wantStatus       int
		wantCacheControl string
		wantBodyContains string
	}{
		{
			name:             "ready video is cacheable",
			ctxID:            true,
			svcOut:           sampleVideo(id, model.VideoStatusReady),
			wantStatus:       http.StatusOK,
			wantCacheControl: "public, max-age=300",
			wantBodyContains: "playlist.m3u8",
		},
		{
			name:             "processing video is revalidated",
			ctxID:            true,
			svcOut:           sampleVideo(id, model.VideoStatusProcessing),
			wantStatus:       http.StatusOK,
			wantCacheControl: "no-cache",
			wantBodyContains: `"status":"processing"`,
		},
		{
			name:             "missing ID",
			wantStatus:       http.StatusBadRequest,
			wantCacheControl: "no-store, max-age=0, must-revalidate",
			wantBodyContains: "ID is required",
		},
		{
			name:             "not found",
			ctxID:            true,
			svcErr:           video.ErrVideoNotFound,
			wantStatus:       http.StatusNotFound,
			wantCacheControl: "no-store, max-age=0, must-revalidate",
			wantBodyContains: "Video not found",
		},
		{
			name:             "repository failure",
			ctxID:            true,
			svcErr:           errors.New("db down"),
			wantStatus:       http.StatusInternalServerError,
			wantCacheControl: "no-store, max-age=0, must-revalidate",
			wantBodyContains: "Could not get details of video #" + id.String(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mock.VideoGetter{Out: tc.svcOut, Err: tc.svcErr}
			req := httptest.NewRequest(http.MethodGet, "/videos/"+id.String(), nil)
			if tc.ctxID {
				req = req.WithContext(context.WithValue(req.Context(), api_context.IDKey, id))
			}
			rec := httptest.NewRecorder()

			GetVideoHandler(svc)(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d; want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Cache-Control"); got != tc.wantCacheControl {
				t.Errorf("Cache-Control = %q; want %q", got, tc.wantCacheControl)
			}
			if !strings.Contains(rec.Body.String(), tc.wantBodyContains) {
				t.Errorf("body = %q; want to contain %q", rec.Body.String(), tc.wantBodyContains)
			}
			if tc.ctxID && svc.GotID != id {
				t.Errorf("service got ID %s; want %s", svc.GotID, id)
			}
			if tc.wantStatus == http.StatusOK {
				if rec.Header().Get("ETag") == "" {
					t.Error("expected an ETag header")
				}
				var got model.Video
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if got.ID != id {
					t.Errorf("id = %s; want %s", got.ID, id)
				}
			}
		})
	}
}

func TestGetVideoHandler_NotModified(t *testing.T) {
	id := uuid.NewUUID()
	svc := &mock.VideoGetter{Out: sampleVideo(id, model.VideoStatusReady)}
	h := GetVideoHandler(svc)

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/videos/"+id.String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), api_context.IDKey, id))
	h(first, req)
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag on first response")
	}

	second := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/videos/"+id.String(), nil)
	req2 = req2.WithContext(context.WithValue(req2.Context(), api_context.IDKey, id))
	req2.Header.Set("If-None-Match", etag)
	h(second, req2)

	if second.Code != http.StatusNotModified {
		t.Fatalf("status = %d; want 304", second.Code)
	}
	if second.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", second.Body.String())
	}
}
