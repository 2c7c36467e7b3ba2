package mariadb

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/usecase/video"
	msuuid "github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/google/uuid"
)

var (
	videoID = msuuid.UUID(uuid.MustParse("aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"))
	roomID  = msuuid.UUID(uuid.MustParse("11111111-2222-4333-8444-555555555555"))
	columns = []string{"id", "room_id", "title", "description", "bucket", "object_key", "size_bytes", "status", "hls_url", "failure_message", "created_at", "updated_at"}
)

func raw(u msuuid.UUID) []byte {
	b := [16]byte(u)
	return b[:]
}

func newRepo(t *testing.T) (*VideoRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewVideoRepository(sqlDB), mock
}

func TestVideoRepository_Create(t *testing.T) {
	repo, mock := newRepo(t)

	desc := "first take"
	v := &model.Video{
		ID:          videoID,
		RoomID:      roomID,
		Title:       "Intro",
		Description: &desc,
		Bucket:      "videos",
		ObjectKey:   "uploads/room/clip.mp4",
		SizeBytes:   2048,
		Status:      model.VideoStatusPending,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO videos`)).
		WithArgs(v.ID, v.RoomID, v.Title, v.Description, v.Bucket, v.ObjectKey, v.SizeBytes, v.Status).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), v); err != nil {
		t.Errorf("Create() returned unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestVideoRepository_Create_ExecError(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("INSERT INTO videos").WillReturnError(errors.New("db.Exec failed"))

	err := repo.Create(context.Background(), &model.Video{ID: videoID, Status: model.VideoStatusPending})
	if err == nil || err.Error() != "db.Exec failed" {
		t.Fatalf("expected 'db.Exec failed', got %v", err)
	}
}

func TestVideoRepository_GetByID(t *testing.T) {
	repo, mock := newRepo(t)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	hls := "http://minio:9000/videos/hls/x/playlist.m3u8"
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, room_id, title`)).
		WithArgs(videoID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(raw(videoID), raw(roomID), "Intro", nil, "videos", "uploads/room/clip.mp4", int64(2048), "ready", hls, nil, now, now))

	v, err := repo.GetByID(context.Background(), videoID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID != videoID || v.RoomID != roomID {
		t.Errorf("ids = %s/%s", v.ID, v.RoomID)
	}
	if v.Status != model.VideoStatusReady {
		t.Errorf("status = %q", v.Status)
	}
	if v.HLSURL == nil || *v.HLSURL != hls {
		t.Errorf("hls url = %v", v.HLSURL)
	}
	if v.Description != nil {
		t.Errorf("expected nil description, got %q", *v.Description)
	}
	if !v.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v", v.CreatedAt)
	}
}

func TestVideoRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("SELECT").WithArgs(videoID).WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), videoID)
	if !errors.Is(err, video.ErrVideoNotFound) {
		t.Fatalf("err = %v; want ErrVideoNotFound", err)
	}
}

func TestVideoRepository_ListByRoom(t *testing.T) {
	now := time.Now()
	otherID := msuuid.UUID(uuid.MustParse("ffffffff-1111-4222-8333-444444444444"))

	t.Run("filtered by room", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM videos WHERE room_id = ? ORDER BY created_at DESC`)).
			WithArgs(roomID).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(raw(otherID), raw(roomID), "B", nil, "videos", "k2", int64(2048), "pending", nil, nil, now, now).
				AddRow(raw(videoID), raw(roomID), "A", nil, "videos", "k1", int64(2048), "processing", nil, nil, now, now))

		rid := roomID
		out, err := repo.ListByRoom(context.Background(), &rid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 2 || out[0].ID != otherID || out[1].ID != videoID {
			t.Errorf("unexpected result: %+v", out)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("all rooms, none found", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM videos ORDER BY created_at DESC`)).
			WillReturnRows(sqlmock.NewRows(columns))

		out, err := repo.ListByRoom(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out == nil || len(out) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", out)
		}
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("boom"))

		if _, err := repo.ListByRoom(context.Background(), nil); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestVideoRepository_ListPendingBefore(t *testing.T) {
	repo, mock := newRepo(t)
	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = ? AND created_at < ? ORDER BY created_at`)).
		WithArgs(model.VideoStatusPending, cutoff).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(raw(videoID), raw(roomID), "A", nil, "videos", "k1", int64(2048), "pending", nil, nil, cutoff, cutoff))

	out, err := repo.ListPendingBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].ObjectKey != "k1" {
		t.Errorf("unexpected result: %+v", out)
	}
}

func TestVideoRepository_Transitions(t *testing.T) {
	hls := "http://minio:9000/videos/hls/x/playlist.m3u8"

	tests := []struct {
		name     string
		query    string
		args     []driver.Value
		affected int64
		execErr  error
		call     func(r *VideoRepository) error
		wantErr  error
	}{
		{
			name:     "processing from pending",
			query:    `UPDATE videos SET status = ? WHERE id = ? AND status = ?`,
			args:     []driver.Value{model.VideoStatusProcessing, videoID, model.VideoStatusPending},
			affected: 1,
			call:     func(r *VideoRepository) error { return r.MarkProcessing(context.Background(), videoID) },
		},
		{
			name:     "processing conflict",
			query:    `UPDATE videos SET status = ? WHERE id = ? AND status = ?`,
			args:     []driver.Value{model.VideoStatusProcessing, videoID, model.VideoStatusPending},
			affected: 0,
			call:     func(r *VideoRepository) error { return r.MarkProcessing(context.Background(), videoID) },
			wantErr:  video.ErrStatusConflict,
		},
		{
			name:     "ready sets url atomically",
			query:    `UPDATE videos SET status = ?, hls_url = ?, failure_message = NULL WHERE id = ? AND status = ?`,
			args:     []driver.Value{model.VideoStatusReady, hls, videoID, model.VideoStatusProcessing},
			affected: 1,
			call:     func(r *VideoRepository) error { return r.MarkReady(context.Background(), videoID, hls) },
		},
		{
			name:     "ready refused unless processing",
			query:    `UPDATE videos SET status = ?, hls_url = ?`,
			args:     []driver.Value{model.VideoStatusReady, hls, videoID, model.VideoStatusProcessing},
			affected: 0,
			call:     func(r *VideoRepository) error { return r.MarkReady(context.Background(), videoID, hls) },
			wantErr:  video.ErrStatusConflict,
		},
		{
			name:     "failed from processing",
			query:    `UPDATE videos SET status = ?, failure_message = ? WHERE id = ? AND status = ?`,
			args:     []driver.Value{model.VideoStatusFailed, "deadline exceeded", videoID, model.VideoStatusProcessing},
			affected: 1,
			call: func(r *VideoRepository) error {
				return r.MarkFailed(context.Background(), videoID, "deadline exceeded")
			},
		},
		{
			name:     "failed refused unless processing",
			query:    `UPDATE videos SET status = ?, failure_message = ?`,
			args:     []driver.Value{model.VideoStatusFailed, "x", videoID, model.VideoStatusProcessing},
			affected: 0,
			call:     func(r *VideoRepository) error { return r.MarkFailed(context.Background(), videoID, "x") },
			wantErr:  video.ErrStatusConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			mock.ExpectExec(regexp.QuoteMeta(tc.query)).
				WithArgs(tc.args...).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := tc.call(repo)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestVideoRepository_Transition_RefusesSkippedStatus(t *testing.T) {
	repo, mock := newRepo(t)

	err := repo.transition(context.Background(), model.VideoStatusPending, model.VideoStatusFailed, `UPDATE videos SET status = ?`, model.VideoStatusFailed)
	if !errors.Is(err, video.ErrStatusConflict) {
		t.Fatalf("err = %v; want ErrStatusConflict", err)
	}
	// no statement may reach the database
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestVideoRepository_Transition_ExecError(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE videos").WillReturnError(errors.New("lost connection"))

	err := repo.MarkReady(context.Background(), videoID, "http://x")
	if err == nil || errors.Is(err, video.ErrStatusConflict) {
		t.Fatalf("expected raw db error, got %v", err)
	}
}
