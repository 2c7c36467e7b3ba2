package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/logger"
	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/port"
	"github.com/fhuszti/videos-ms-go/internal/usecase/video"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
)

type VideoRepository struct {
	db *sql.DB
}

// compile-time check: *VideoRepository must satisfy port.VideoRepository
var _ port.VideoRepository = (*VideoRepository)(nil)

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const selectColumns = `id, room_id, title, description, bucket, object_key, size_bytes, status, hls_url, failure_message, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*model.Video, error) {
	var v model.Video
	if err := row.Scan(
		&v.ID, &v.RoomID, &v.Title, &v.Description,
		&v.Bucket, &v.ObjectKey, &v.SizeBytes, &v.Status,
		&v.HLSURL, &v.FailureMessage,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VideoRepository) Create(ctx context.Context, v *model.Video) error {
	logger.Infof(ctx, "creating database record for video #%s, at status %q...", v.ID, v.Status)

	const query = `
      INSERT INTO videos
        (id, room_id, title, description, bucket, object_key, size_bytes, status)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.RoomID, v.Title, v.Description,
		v.Bucket, v.ObjectKey, v.SizeBytes, v.Status,
	)
	return err
}

func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	logger.Debugf(ctx, "fetching video #%s from the database...", id)

	query := `SELECT ` + selectColumns + ` FROM videos WHERE id = ?`
	v, err := scanVideo(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, video.ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListByRoom returns every video of a room, newest first. A nil roomID lists all rooms.
func (r *VideoRepository) ListByRoom(ctx context.Context, roomID *uuid.UUID) ([]*model.Video, error) {
	query := `SELECT ` + selectColumns + ` FROM videos`
	var args []any
	if roomID != nil {
		query += ` WHERE room_id = ?`
		args = append(args, *roomID)
	}
	query += ` ORDER BY created_at DESC`

	return r.list(ctx, query, args...)
}

// ListPendingBefore returns the videos whose job was never picked up, oldest first.
func (r *VideoRepository) ListPendingBefore(ctx context.Context, before time.Time) ([]*model.Video, error) {
	query := `SELECT ` + selectColumns + ` FROM videos WHERE status = ? AND created_at < ? ORDER BY created_at`
	return r.list(ctx, query, model.VideoStatusPending, before)
}

func (r *VideoRepository) list(ctx context.Context, query string, args ...any) ([]*model.Video, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logger.Errorf(ctx, "error closing rows: %v", cerr)
		}
	}()

	videos := make([]*model.Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *VideoRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	logger.Infof(ctx, "moving video #%s to %q...", id, model.VideoStatusProcessing)

	const query = `UPDATE videos SET status = ? WHERE id = ? AND status = ?`
	return r.transition(ctx, model.VideoStatusPending, model.VideoStatusProcessing, query, model.VideoStatusProcessing, id, model.VideoStatusPending)
}

// MarkReady sets the status and the playlist location in a single statement so
// neither is ever visible without the other.
func (r *VideoRepository) MarkReady(ctx context.Context, id uuid.UUID, hlsURL string) error {
	logger.Infof(ctx, "moving video #%s to %q...", id, model.VideoStatusReady)

	const query = `UPDATE videos SET status = ?, hls_url = ?, failure_message = NULL WHERE id = ? AND status = ?`
	return r.transition(ctx, model.VideoStatusProcessing, model.VideoStatusReady, query, model.VideoStatusReady, hlsURL, id, model.VideoStatusProcessing)
}

func (r *VideoRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	logger.Infof(ctx, "moving video #%s to %q...", id, model.VideoStatusFailed)

	const query = `UPDATE videos SET status = ?, failure_message = ? WHERE id = ? AND status = ?`
	return r.transition(ctx, model.VideoStatusProcessing, model.VideoStatusFailed, query, model.VideoStatusFailed, reason, id, model.VideoStatusProcessing)
}

// transition runs a conditional UPDATE moving a video from one status to
// another. No affected row means the video was not in the from status, or does
// not exist.
func (r *VideoRepository) transition(ctx context.Context, from, to model.VideoStatus, query string, args ...any) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", video.ErrStatusConflict, from, to)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", video.ErrStatusConflict, to)
	}
	return nil
}
