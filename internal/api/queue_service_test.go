package api_test

import (
	"context"
	"testing"

	"ytscribe/internal/api"
	"ytscribe/internal/queue"
	"ytscribe/internal/testsupport"
)

func TestQueueServiceListAndDescribe(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	first := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "First")
	second := testsupport.NewVideo(t, store, "https://youtu.be/oHg5SJYRHA0", "oHg5SJYRHA0", "Second")
	second.Status = queue.StatusCompleted
	if err := store.Update(context.Background(), second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	svc := api.NewQueueService(store)

	all, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two items, got %d", len(all))
	}

	pending, err := svc.List(context.Background(), queue.StatusPending)
	if err != nil {
		t.Fatalf("List filtered failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("expected only pending item, got %+v", pending)
	}

	dto, err := svc.Describe(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if dto == nil || dto.Status != "completed" {
		t.Fatalf("unexpected describe result %+v", dto)
	}
}

func TestQueueServiceStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "First")

	svc := api.NewQueueService(store)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["pending"] != 1 {
		t.Fatalf("expected one pending item, got %v", stats)
	}
}

func TestQueueServiceNilReader(t *testing.T) {
	if svc := api.NewQueueService(nil); svc != nil {
		t.Fatal("expected nil service without reader")
	}
	var svc *api.QueueService
	if items, err := svc.List(context.Background()); err != nil || items != nil {
		t.Fatalf("expected nil list from nil service, got %v %v", items, err)
	}
}
