package whisper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.m4a")
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAPIEngineTranscribe(t *testing.T) {
	var gotModel, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"text": "hello from whisper", "language": "en", "segments": [{"start": 0, "end": 2.5, "text": "hello from whisper"}]}`)
	}))
	t.Cleanup(server.Close)

	engine := NewAPIEngine(APIConfig{APIKey: "secret", BaseURL: server.URL, Model: "whisper-1"})
	result, err := engine.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "hello from whisper" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if result.Language != "en" || result.Model != "whisper-1" {
		t.Fatalf("unexpected provenance: %#v", result)
	}
	if len(result.Segments) != 1 || result.Segments[0].End != 2500*time.Millisecond {
		t.Fatalf("unexpected segments: %#v", result.Segments)
	}
	if gotModel != "whisper-1" {
		t.Fatalf("expected model field, got %q", gotModel)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
}

func TestAPIEngineRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"text": "recovered"}`)
	}))
	t.Cleanup(server.Close)

	engine := NewAPIEngine(
		APIConfig{APIKey: "secret", BaseURL: server.URL},
		WithAPIRetryMaxElapsed(10*time.Second),
	)
	result, err := engine.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "recovered" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestAPIEngineDoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": {"message": "bad key"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	engine := NewAPIEngine(APIConfig{APIKey: "wrong", BaseURL: server.URL})
	_, err := engine.Transcribe(context.Background(), writeAudioFixture(t))
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", calls.Load())
	}
}

func TestAPIEngineRequiresKey(t *testing.T) {
	engine := NewAPIEngine(APIConfig{})
	if _, err := engine.Transcribe(context.Background(), "audio.m4a"); err == nil {
		t.Fatal("expected error without api key")
	}
	if err := engine.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check failure without api key")
	}
}

func TestAPIEngineName(t *testing.T) {
	engine := NewAPIEngine(APIConfig{Model: "whisper-1"})
	if !strings.Contains(engine.Name(), "whisper-1") {
		t.Fatalf("expected model in name, got %q", engine.Name())
	}
}
