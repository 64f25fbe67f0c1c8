package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytscribe/internal/config"
)

const userAgent = "ytscribe/0.1.0"

// Event identifies a notification trigger within the workflow.
type Event string

const (
	// EventTranscriptReady fires when an item reaches completed with a final transcript.
	EventTranscriptReady Event = "transcript_ready"
	// EventFallbackEngaged fires when captions were unavailable and the item
	// switched to the audio download path.
	EventFallbackEngaged Event = "fallback_engaged"
	// EventQueueStarted fires when batch processing begins.
	EventQueueStarted Event = "queue_started"
	// EventQueueCompleted fires when batch processing drains the queue.
	EventQueueCompleted Event = "queue_completed"
	// EventError fires on stage failures.
	EventError Event = "error"
	// EventReviewRequired fires when an item needs manual intervention.
	EventReviewRequired Event = "review_required"
	// EventTest verifies the notification channel.
	EventTest Event = "test"
)

// Payload carries event-specific template values.
type Payload map[string]string

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		cfg:      cfg.Notifications,
	}
}

// NewNop returns a notification service that drops every event.
func NewNop() Service {
	return noopService{}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	cfg      config.Notifications
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventTranscriptReady:
		return n.cfg.Completion
	case EventFallbackEngaged:
		return n.cfg.Fallback
	case EventQueueStarted, EventQueueCompleted:
		return n.cfg.Queue
	case EventError, EventReviewRequired:
		return n.cfg.Errors
	default:
		return true
	}
}

func render(event Event, payload Payload) (message, bool) {
	get := func(key string) string {
		return strings.TrimSpace(payload[key])
	}
	switch event {
	case EventTranscriptReady:
		title := get("title")
		body := fmt.Sprintf("Transcript ready: %s", title)
		if file := get("file"); file != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, file)
		}
		if source := get("source"); source != "" {
			body = fmt.Sprintf("%s\nSource: %s", body, source)
		}
		return message{
			title:    "ytscribe - Transcript Ready",
			body:     body,
			tags:     []string{"ytscribe", "transcript", "completed"},
			priority: "high",
		}, true
	case EventFallbackEngaged:
		return message{
			title: "ytscribe - Fallback Engaged",
			body:  fmt.Sprintf("No usable captions for %s; downloading audio for speech recognition", get("title")),
			tags:  []string{"ytscribe", "fallback"},
		}, true
	case EventQueueStarted:
		return message{
			title: "ytscribe - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %s items", get("count")),
			tags:  []string{"ytscribe", "queue", "started"},
		}, true
	case EventQueueCompleted:
		body := fmt.Sprintf("Queue processing complete: %s succeeded", get("processed"))
		if failed := get("failed"); failed != "" && failed != "0" {
			body = fmt.Sprintf("%s, %s failed", body, failed)
		}
		return message{
			title: "ytscribe - Queue Complete",
			body:  body,
			tags:  []string{"ytscribe", "queue", "completed"},
		}, true
	case EventError:
		body := "Error"
		if label := get("context"); label != "" {
			body = fmt.Sprintf("%s with %s", body, label)
		}
		if detail := get("error"); detail != "" {
			body = fmt.Sprintf("%s: %s", body, detail)
		}
		return message{
			title:    "ytscribe - Error",
			body:     body,
			tags:     []string{"ytscribe", "error", "alert"},
			priority: "high",
		}, true
	case EventReviewRequired:
		return message{
			title: "ytscribe - Review Required",
			body:  fmt.Sprintf("Manual intervention needed for %s: %s", get("title"), get("reason")),
			tags:  []string{"ytscribe", "review"},
		}, true
	case EventTest:
		return message{
			title:    "ytscribe - Test",
			body:     "Notification system test",
			tags:     []string{"ytscribe", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
