package identify

import (
	"context"
	"errors"
	"testing"

	"ytscribe/internal/logging"
	"ytscribe/internal/queue"
	"ytscribe/internal/services"
	"ytscribe/internal/services/innertube"
	"ytscribe/internal/testsupport"
)

type fakePlayer struct {
	details innertube.VideoDetails
	tracks  []innertube.CaptionTrack
	err     error
	gotID   string
}

func (f *fakePlayer) Player(ctx context.Context, videoID string) (innertube.VideoDetails, []innertube.CaptionTrack, error) {
	f.gotID = videoID
	return f.details, f.tracks, f.err
}

func TestExecuteAppliesMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "", "")

	player := &fakePlayer{details: innertube.VideoDetails{
		VideoID:       "dQw4w9WgXcQ",
		Title:         "Never Gonna Give You Up",
		Author:        "Rick Astley",
		LengthSeconds: 212,
	}}
	identifier := NewIdentifierWithDependencies(cfg, store, logging.NewNop(), player)

	if err := identifier.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := identifier.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if player.gotID != "dQw4w9WgXcQ" {
		t.Errorf("player called with %q", player.gotID)
	}
	if item.Title != "Never Gonna Give You Up" || item.Channel != "Rick Astley" {
		t.Errorf("metadata not applied: %#v", item)
	}
	if item.DurationSeconds != 212 {
		t.Errorf("duration not applied: %d", item.DurationSeconds)
	}
	if item.MetadataJSON == "" {
		t.Error("expected metadata JSON to be stored")
	}
	if item.ProgressPercent != 100 {
		t.Errorf("expected completed progress, got %f", item.ProgressPercent)
	}
}

func TestExecuteRejectsBadURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://example.com/not-a-video", "", "")

	identifier := NewIdentifierWithDependencies(cfg, store, logging.NewNop(), &fakePlayer{})
	err := identifier.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected error for non-video URL")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review routing for validation error")
	}
}

func TestExecuteRejectsLiveStreams(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "")

	player := &fakePlayer{details: innertube.VideoDetails{VideoID: "dQw4w9WgXcQ", Title: "live", IsLive: true}}
	identifier := NewIdentifierWithDependencies(cfg, store, logging.NewNop(), player)

	err := identifier.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for live stream, got %v", err)
	}
}

func TestExecuteUnavailableVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "")

	player := &fakePlayer{err: innertube.ErrVideoUnavailable}
	identifier := NewIdentifierWithDependencies(cfg, store, logging.NewNop(), player)

	err := identifier.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	identifier := NewIdentifierWithDependencies(cfg, store, logging.NewNop(), &fakePlayer{})
	if health := identifier.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %#v", health)
	}

	broken := NewIdentifierWithDependencies(cfg, store, logging.NewNop(), nil)
	if health := broken.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without client")
	}
}
