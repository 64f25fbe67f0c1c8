package stageexec_test

import (
	"context"
	"errors"
	"testing"

	"ytscribe/internal/logging"
	"ytscribe/internal/notifications"
	"ytscribe/internal/queue"
	"ytscribe/internal/services"
	"ytscribe/internal/stageexec"
	"ytscribe/internal/testsupport"
)

type hookHandler struct {
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
}

func (h *hookHandler) Prepare(_ context.Context, item *queue.Item) error { return h.prepareErr }

func (h *hookHandler) Execute(_ context.Context, item *queue.Item) error {
	if h.executeHook != nil {
		h.executeHook(item)
	}
	return h.executeErr
}

func TestRunAdvancesStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "Test")

	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Notifier:   notifications.NewNop(),
		Handler:    &hookHandler{},
		StageName:  "identifier",
		Processing: queue.StatusIdentifying,
		Done:       queue.StatusIdentified,
		Item:       item,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if item.Status != queue.StatusIdentified {
		t.Fatalf("expected identified, got %s", item.Status)
	}

	persisted, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if persisted.Status != queue.StatusIdentified {
		t.Fatalf("expected persisted identified, got %s", persisted.Status)
	}
}

func TestRunPreservesHandlerStatusOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "Test")
	item.Status = queue.StatusIdentified

	handler := &hookHandler{executeHook: func(it *queue.Item) {
		it.Status = queue.StatusAwaitingAudio
	}}
	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "captions",
		Processing: queue.StatusCaptioning,
		Done:       queue.StatusCaptioned,
		Item:       item,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if item.Status != queue.StatusAwaitingAudio {
		t.Fatalf("expected awaiting_audio override to survive, got %s", item.Status)
	}
}

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestRunPublishesReviewNotification(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "Test")

	notifier := &recordingNotifier{}
	handler := &hookHandler{executeErr: services.Wrap(services.ErrValidation, "identifying", "validate", "live stream", nil)}
	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Notifier:   notifier,
		Handler:    handler,
		StageName:  "identifier",
		Processing: queue.StatusIdentifying,
		Done:       queue.StatusIdentified,
		Item:       item,
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventReviewRequired {
		t.Fatalf("expected review notification, got %v", notifier.events)
	}
	if notifier.payloads[0]["reason"] != item.ReviewReason {
		t.Fatalf("unexpected notification payload %v", notifier.payloads[0])
	}
}

func TestRunNotifiesErrorOnFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "Test")

	notifier := &recordingNotifier{}
	handler := &hookHandler{executeErr: errors.New("boom")}
	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Notifier:   notifier,
		Handler:    handler,
		StageName:  "downloader",
		Processing: queue.StatusDownloading,
		Done:       queue.StatusDownloaded,
		Item:       item,
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventError {
		t.Fatalf("expected error notification, got %v", notifier.events)
	}
}

func TestRunRoutesValidationToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "Test")

	handler := &hookHandler{executeErr: services.Wrap(services.ErrValidation, "identifying", "validate", "bad input", nil)}
	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "identifier",
		Processing: queue.StatusIdentifying,
		Done:       queue.StatusIdentified,
		Item:       item,
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if item.Status != queue.StatusReview || !item.NeedsReview {
		t.Fatalf("expected review routing, got %s", item.Status)
	}
}

func TestRunMarksFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "Test")

	handler := &hookHandler{executeErr: errors.New("boom")}
	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:     logging.NewNop(),
		Store:      store,
		Handler:    handler,
		StageName:  "downloader",
		Processing: queue.StatusDownloading,
		Done:       queue.StatusDownloaded,
		Item:       item,
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	if item.Status != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", item.Status)
	}
	if item.ErrorMessage == "" {
		t.Fatal("expected error message")
	}
}

func TestRunRequiresHandler(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "Test")

	err := stageexec.Run(context.Background(), stageexec.Options{
		Logger: logging.NewNop(),
		Store:  store,
		Item:   item,
	})
	if err == nil {
		t.Fatal("expected error without handler")
	}
}
