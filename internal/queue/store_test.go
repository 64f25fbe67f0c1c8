package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ytscribe/internal/queue"
	"ytscribe/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewVideo(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", "Sample Video")
	if err != nil {
		t.Fatalf("NewVideo failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Sample Video" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
}

func TestNewVideoDeduplicatesActiveItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := store.NewVideo(ctx, "https://youtu.be/abc123def45", "abc123def45", "")
	if err != nil {
		t.Fatalf("NewVideo failed: %v", err)
	}
	second, err := store.NewVideo(ctx, "https://youtu.be/abc123def45", "abc123def45", "")
	if err != nil {
		t.Fatalf("NewVideo failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected duplicate add to return existing item %d, got %d", first.ID, second.ID)
	}

	first.Status = queue.StatusCompleted
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	third, err := store.NewVideo(ctx, "https://youtu.be/abc123def45", "abc123def45", "")
	if err != nil {
		t.Fatalf("NewVideo failed: %v", err)
	}
	if third.ID == first.ID {
		t.Fatal("expected new item once prior run completed")
	}
}

func TestUpdatePersistsTranscriptFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewVideo(t, store, "https://www.youtube.com/watch?v=xyz", "xyz", "Talk")
	item.Status = queue.StatusCaptioned
	item.CaptionLanguage = "en"
	item.TranscriptSource = queue.SourceCaptions
	item.TranscriptFile = "/tmp/talk.txt"
	item.Channel = "Conference"
	item.DurationSeconds = 1800
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.CaptionLanguage != "en" || fetched.TranscriptSource != queue.SourceCaptions {
		t.Fatalf("transcript fields not persisted: %#v", fetched)
	}
	if fetched.DurationSeconds != 1800 || fetched.Channel != "Conference" {
		t.Fatalf("metadata fields not persisted: %#v", fetched)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	statuses := []queue.Status{
		queue.StatusIdentifying,
		queue.StatusCaptioning,
		queue.StatusDownloading,
		queue.StatusTranscribing,
		queue.StatusExporting,
	}
	var ids []int64
	for i, status := range statuses {
		item := testsupport.NewVideo(t, store, fmt.Sprintf("https://youtu.be/reset%06d", i), fmt.Sprintf("reset%06d", i), "")
		item.Status = status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(statuses) {
		t.Fatalf("expected %d items reset, got %d", len(statuses), count)
	}

	for _, id := range ids {
		updated, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != queue.StatusPending {
			t.Fatalf("expected pending after reset, got %s", updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatal("expected heartbeat cleared")
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.NewVideo(t, store, "https://youtu.be/stale000001", "stale000001", "")
	past := time.Now().UTC().Add(-time.Hour)
	stale.Status = queue.StatusTranscribing
	stale.LastHeartbeat = &past
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := testsupport.NewVideo(t, store, "https://youtu.be/fresh000001", "fresh000001", "")
	now := time.Now().UTC()
	fresh.Status = queue.StatusTranscribing
	fresh.LastHeartbeat = &now
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reclaimed item, got %d", count)
	}

	reclaimed, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reclaimed.Status != queue.StatusPending {
		t.Fatalf("expected stale item back to pending, got %s", reclaimed.Status)
	}
	untouched, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusTranscribing {
		t.Fatalf("expected fresh item untouched, got %s", untouched.Status)
	}
}

func TestRetryFailedCoversReviewItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	failed := testsupport.NewVideo(t, store, "https://youtu.be/failed00001", "failed00001", "")
	failed.SetFailed("download failed")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	review := testsupport.NewVideo(t, store, "https://youtu.be/review00001", "review00001", "")
	review.Status = queue.StatusReview
	review.NeedsReview = true
	review.ReviewReason = "no captions and whisper unavailable"
	if err := store.Update(ctx, review); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 retried items, got %d", count)
	}

	for _, id := range []int64{failed.ID, review.ID} {
		item, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if item.Status != queue.StatusPending {
			t.Fatalf("expected pending after retry, got %s", item.Status)
		}
		if item.ErrorMessage != "" || item.NeedsReview {
			t.Fatalf("expected error state cleared: %#v", item)
		}
	}
}

func TestNextForStatusesReturnsOldest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewVideo(t, store, "https://youtu.be/order000001", "order000001", "")
	time.Sleep(2 * time.Millisecond)
	testsupport.NewVideo(t, store, "https://youtu.be/order000002", "order000002", "")

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending item, got %#v", next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusCompleted)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no completed items, got %#v", none)
	}
}

func TestHealthAggregatesCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	pending := testsupport.NewVideo(t, store, "https://youtu.be/health00001", "health00001", "")
	_ = pending

	processing := testsupport.NewVideo(t, store, "https://youtu.be/health00002", "health00002", "")
	processing.Status = queue.StatusDownloading
	if err := store.Update(ctx, processing); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	done := testsupport.NewVideo(t, store, "https://youtu.be/health00003", "health00003", "")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Processing != 1 || health.Completed != 1 {
		t.Fatalf("unexpected health summary: %#v", health)
	}
}

func TestClearVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	completed := testsupport.NewVideo(t, store, "https://youtu.be/clear000001", "clear000001", "")
	completed.Status = queue.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	failed := testsupport.NewVideo(t, store, "https://youtu.be/clear000002", "clear000002", "")
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	testsupport.NewVideo(t, store, "https://youtu.be/clear000003", "clear000003", "")

	if count, err := store.ClearCompleted(ctx); err != nil || count != 1 {
		t.Fatalf("ClearCompleted = %d, %v", count, err)
	}
	if count, err := store.ClearFailed(ctx); err != nil || count != 1 {
		t.Fatalf("ClearFailed = %d, %v", count, err)
	}
	if count, err := store.Clear(ctx); err != nil || count != 1 {
		t.Fatalf("Clear = %d, %v", count, err)
	}
}

func TestRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewVideo(t, store, "https://youtu.be/remove00001", "remove00001", "")

	removed, err := store.Remove(ctx, item.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected item to be removed")
	}
	removed, err = store.Remove(ctx, item.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Fatal("expected second remove to report missing item")
	}
}

func TestCheckHealthReportsDatabaseState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	testsupport.NewVideo(t, store, "https://youtu.be/check000001", "check000001", "")

	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected database health: %#v", health)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("expected no missing columns, got %v", health.MissingColumns)
	}
	if health.TotalItems != 1 {
		t.Fatalf("expected 1 item, got %d", health.TotalItems)
	}
}
