package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fhuszti/videos-ms-go/internal/model"
	"github.com/fhuszti/videos-ms-go/internal/repository/mariadb"
	"github.com/fhuszti/videos-ms-go/internal/usecase/video"
	"github.com/fhuszti/videos-ms-go/internal/uuid"
	"github.com/fhuszti/videos-ms-go/test/testutil"
)

func newRepo(t *testing.T) *mariadb.VideoRepository {
	t.Helper()
	testDB, err := testutil.SetupTestDB()
	if err != nil {
		t.Fatalf("setup DB: %v", err)
	}
	t.Cleanup(func() { _ = testDB.Cleanup() })
	return mariadb.NewVideoRepository(testDB.DB)
}

func pendingVideo(room uuid.UUID) *model.Video {
	id := uuid.NewUUID()
	return &model.Video{
		ID:        id,
		RoomID:    room,
		Title:     "Lecture",
		Bucket:    testBucket,
		ObjectKey: video.SourceKey(room, id, "clip.mp4"),
		SizeBytes: 1024,
		Status:    model.VideoStatusPending,
	}
}

func TestVideoRepositoryIntegration_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	v := pendingVideo(uuid.NewUUID())
	if err := repo.Create(ctx, v); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.MarkReady(ctx, v.ID, "http://cdn/x.m3u8"); !errors.Is(err, video.ErrStatusConflict) {
		t.Fatalf("pending -> ready error = %v; want ErrStatusConflict", err)
	}
	if err := repo.MarkProcessing(ctx, v.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := repo.MarkProcessing(ctx, v.ID); !errors.Is(err, video.ErrStatusConflict) {
		t.Fatalf("processing twice error = %v; want ErrStatusConflict", err)
	}
	if err := repo.MarkReady(ctx, v.ID, "http://cdn/x.m3u8"); err != nil {
		t.Fatalf("MarkReady: %v", err)
	}
	if err := repo.MarkFailed(ctx, v.ID, "late timeout"); !errors.Is(err, video.ErrStatusConflict) {
		t.Fatalf("ready -> failed error = %v; want ErrStatusConflict", err)
	}

	got, err := repo.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.VideoStatusReady || got.HLSURL == nil || *got.HLSURL != "http://cdn/x.m3u8" {
		t.Errorf("video = %+v; want ready with playlist", got)
	}
	if got.SizeBytes != 1024 || got.ObjectKey != v.ObjectKey {
		t.Errorf("size/key = %d/%q", got.SizeBytes, got.ObjectKey)
	}
}

func TestVideoRepositoryIntegration_FailNeedsProcessing(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	v := pendingVideo(uuid.NewUUID())
	if err := repo.Create(ctx, v); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.MarkFailed(ctx, v.ID, "exhausted"); !errors.Is(err, video.ErrStatusConflict) {
		t.Fatalf("MarkFailed on pending = %v; want ErrStatusConflict", err)
	}
	if err := repo.MarkProcessing(ctx, v.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := repo.MarkFailed(ctx, v.ID, "exhausted"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	got, err := repo.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != model.VideoStatusFailed || got.FailureMessage == nil || *got.FailureMessage != "exhausted" {
		t.Errorf("video = %+v; want failed with reason", got)
	}
	if _, err := repo.GetByID(ctx, uuid.NewUUID()); !errors.Is(err, video.ErrVideoNotFound) {
		t.Errorf("unknown id error = %v; want ErrVideoNotFound", err)
	}
}

func TestVideoRepositoryIntegration_Listing(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	roomA, roomB := uuid.NewUUID(), uuid.NewUUID()
	a1, a2, b1 := pendingVideo(roomA), pendingVideo(roomA), pendingVideo(roomB)
	for _, v := range []*model.Video{a1, a2, b1} {
		if err := repo.Create(ctx, v); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.MarkProcessing(ctx, a2.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	inA, err := repo.ListByRoom(ctx, &roomA)
	if err != nil {
		t.Fatalf("ListByRoom: %v", err)
	}
	if len(inA) != 2 {
		t.Errorf("room A has %d videos; want 2", len(inA))
	}
	all, err := repo.ListByRoom(ctx, nil)
	if err != nil {
		t.Fatalf("ListByRoom(nil): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all rooms have %d videos; want 3", len(all))
	}
	empty := uuid.NewUUID()
	none, err := repo.ListByRoom(ctx, &empty)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("empty room = %v, %v; want empty non-nil slice", none, err)
	}

	pending, err := repo.ListPendingBefore(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("ListPendingBefore: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d; want 2", len(pending))
	}
	for _, v := range pending {
		if v.ID == a2.ID {
			t.Error("processing video listed as pending")
		}
	}
	old, err := repo.ListPendingBefore(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListPendingBefore: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("pending older than an hour = %d; want 0", len(old))
	}
}
