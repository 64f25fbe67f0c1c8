package queue_test

import (
	"testing"

	"ytscribe/internal/queue"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  queue.Status
		ok    bool
	}{
		{"pending", queue.StatusPending, true},
		{" Completed ", queue.StatusCompleted, true},
		{"AWAITING_AUDIO", queue.StatusAwaitingAudio, true},
		{"", "", false},
		{"bogus", "", false},
	}
	for _, tc := range cases {
		got, ok := queue.ParseStatus(tc.input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsProcessingStatus(t *testing.T) {
	processing := []queue.Status{
		queue.StatusIdentifying,
		queue.StatusCaptioning,
		queue.StatusDownloading,
		queue.StatusTranscribing,
		queue.StatusExporting,
	}
	for _, status := range processing {
		if !queue.IsProcessingStatus(status) {
			t.Errorf("expected %s to be processing", status)
		}
	}
	idle := []queue.Status{
		queue.StatusPending,
		queue.StatusIdentified,
		queue.StatusCaptioned,
		queue.StatusAwaitingAudio,
		queue.StatusDownloaded,
		queue.StatusTranscribed,
		queue.StatusCompleted,
		queue.StatusFailed,
		queue.StatusReview,
	}
	for _, status := range idle {
		if queue.IsProcessingStatus(status) {
			t.Errorf("expected %s to not be processing", status)
		}
	}
}

func TestLaneForItem(t *testing.T) {
	cases := []struct {
		status queue.Status
		want   queue.ProcessingLane
	}{
		{queue.StatusPending, queue.LaneFetch},
		{queue.StatusIdentified, queue.LaneFetch},
		{queue.StatusCaptioned, queue.LaneFetch},
		{queue.StatusAwaitingAudio, queue.LaneHeavy},
		{queue.StatusDownloading, queue.LaneHeavy},
		{queue.StatusDownloaded, queue.LaneHeavy},
		{queue.StatusTranscribing, queue.LaneHeavy},
		{queue.StatusTranscribed, queue.LaneFetch},
	}
	for _, tc := range cases {
		item := &queue.Item{Status: tc.status}
		if got := queue.LaneForItem(item); got != tc.want {
			t.Errorf("LaneForItem(%s) = %s, want %s", tc.status, got, tc.want)
		}
	}
	if queue.LaneForItem(nil) != queue.LaneFetch {
		t.Error("nil item should map to fetch lane")
	}
}

func TestSetFailedClearsHeartbeat(t *testing.T) {
	item := &queue.Item{Status: queue.StatusDownloading}
	item.SetFailed("network unreachable")
	if item.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", item.Status)
	}
	if item.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared")
	}
	if item.ErrorMessage != "network unreachable" {
		t.Fatalf("unexpected error message %q", item.ErrorMessage)
	}
}

func TestDisplayTitleFallbacks(t *testing.T) {
	item := queue.Item{SourceURL: "https://youtu.be/abc"}
	if got := item.DisplayTitle(); got != "https://youtu.be/abc" {
		t.Fatalf("expected URL fallback, got %q", got)
	}
	item.VideoID = "abc"
	if got := item.DisplayTitle(); got != "abc" {
		t.Fatalf("expected video id fallback, got %q", got)
	}
	item.Title = "A Talk"
	if got := item.DisplayTitle(); got != "A Talk" {
		t.Fatalf("expected title, got %q", got)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	item := &queue.Item{Title: "Old Title"}
	meta := queue.VideoMetadata{
		VideoID:         "abc123",
		Title:           "New Title",
		Channel:         "Some Channel",
		DurationSeconds: 900,
	}
	if err := item.ApplyMetadata(meta); err != nil {
		t.Fatalf("ApplyMetadata failed: %v", err)
	}
	if item.VideoID != "abc123" || item.Title != "New Title" || item.DurationSeconds != 900 {
		t.Fatalf("metadata not applied: %#v", item)
	}

	decoded := item.Metadata()
	if decoded.Channel != "Some Channel" || decoded.DurationSeconds != 900 {
		t.Fatalf("unexpected decoded metadata: %#v", decoded)
	}

	fallback := queue.MetadataFromJSON("not json", "Fallback")
	if fallback.Title != "Fallback" {
		t.Fatalf("expected fallback title, got %q", fallback.Title)
	}
}
