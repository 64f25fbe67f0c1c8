package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ytscribe/internal/config"
)

type capturedRequest struct {
	body     string
	title    string
	tags     string
	priority string
}

func newTestService(t *testing.T, captured *[]capturedRequest) (*ntfyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*captured = append(*captured, capturedRequest{
			body:     string(body),
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completion = true
	cfg.Notifications.Fallback = true
	cfg.Notifications.Queue = true
	cfg.Notifications.Errors = true

	service, ok := NewService(&cfg).(*ntfyService)
	if !ok {
		t.Fatal("expected ntfy-backed service when topic is configured")
	}
	return service, server
}

func TestPublishTranscriptReady(t *testing.T) {
	var captured []capturedRequest
	service, _ := newTestService(t, &captured)

	err := service.Publish(context.Background(), EventTranscriptReady, Payload{
		"title":  "Go Concurrency Patterns",
		"file":   "/out/Go Concurrency Patterns_transcription.txt",
		"source": "captions",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(captured) != 1 {
		t.Fatalf("expected 1 request, got %d", len(captured))
	}
	got := captured[0]
	if !strings.Contains(got.body, "Go Concurrency Patterns") {
		t.Errorf("body missing title: %q", got.body)
	}
	if !strings.Contains(got.body, "Source: captions") {
		t.Errorf("body missing source line: %q", got.body)
	}
	if got.title != "ytscribe - Transcript Ready" {
		t.Errorf("unexpected Title header %q", got.title)
	}
	if got.priority != "high" {
		t.Errorf("expected high priority, got %q", got.priority)
	}
	if !strings.Contains(got.tags, "transcript") {
		t.Errorf("unexpected Tags header %q", got.tags)
	}
}

func TestPublishRespectsCategoryGating(t *testing.T) {
	var captured []capturedRequest
	service, _ := newTestService(t, &captured)
	service.cfg.Fallback = false

	if err := service.Publish(context.Background(), EventFallbackEngaged, Payload{"title": "x"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(captured) != 0 {
		t.Fatalf("expected gated event to be dropped, got %d requests", len(captured))
	}

	if err := service.Publish(context.Background(), EventQueueStarted, Payload{"count": "3"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("expected queue event to be sent, got %d requests", len(captured))
	}
	if !strings.Contains(captured[0].body, "3 items") {
		t.Errorf("unexpected queue body %q", captured[0].body)
	}
}

func TestPublishQueueCompletedIncludesFailures(t *testing.T) {
	var captured []capturedRequest
	service, _ := newTestService(t, &captured)

	err := service.Publish(context.Background(), EventQueueCompleted, Payload{
		"processed": "4",
		"failed":    "2",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("expected 1 request, got %d", len(captured))
	}
	if !strings.Contains(captured[0].body, "4 succeeded") || !strings.Contains(captured[0].body, "2 failed") {
		t.Errorf("unexpected body %q", captured[0].body)
	}
}

func TestPublishErrorStatusReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	service := &ntfyService{
		endpoint: server.URL,
		client:   &http.Client{Timeout: time.Second},
		cfg:      config.Notifications{Errors: true},
	}
	err := service.Publish(context.Background(), EventError, Payload{"context": "item 7", "error": "boom"})
	if err == nil {
		t.Fatal("expected error from non-2xx ntfy response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "  "

	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.Publish(context.Background(), EventTest, nil); err != nil {
		t.Fatalf("noop Publish returned error: %v", err)
	}
}
