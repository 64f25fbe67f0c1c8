package whisper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocalEngineTranscribe(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "clip.m4a")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := NewLocalEngine(LocalConfig{Model: "tiny"})
	var gotArgs []string
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		payload := `{"text": " local transcript ", "language": "en", "segments": [{"start": 0, "end": 1.5, "text": "local transcript"}]}`
		return os.WriteFile(filepath.Join(dir, "clip.json"), []byte(payload), 0o644)
	})

	result, err := engine.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "local transcript" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if result.Model != "tiny" {
		t.Fatalf("unexpected model %q", result.Model)
	}
	if len(result.Segments) != 1 || result.Segments[0].End != 1500*time.Millisecond {
		t.Fatalf("unexpected segments: %#v", result.Segments)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--model tiny") {
		t.Fatalf("expected model flag: %v", gotArgs)
	}
	if !strings.Contains(joined, "--output_format json") {
		t.Fatalf("expected json output flag: %v", gotArgs)
	}
}

func TestLocalEngineMissingOutput(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "clip.m4a")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := NewLocalEngine(LocalConfig{})
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil
	})

	if _, err := engine.Transcribe(context.Background(), audio); err == nil {
		t.Fatal("expected error when CLI wrote no output")
	}
}

func TestLocalEngineEmptyTranscript(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "clip.m4a")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine := NewLocalEngine(LocalConfig{})
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(filepath.Join(dir, "clip.json"), []byte(`{"text": ""}`), 0o644)
	})

	if _, err := engine.Transcribe(context.Background(), audio); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestNewFromConfigSelectsEngine(t *testing.T) {
	api, err := NewFromConfig(configWhisper("api", "key"))
	if err != nil {
		t.Fatalf("NewFromConfig(api) failed: %v", err)
	}
	if _, ok := api.(*APIEngine); !ok {
		t.Fatalf("expected APIEngine, got %T", api)
	}

	local, err := NewFromConfig(configWhisper("local", ""))
	if err != nil {
		t.Fatalf("NewFromConfig(local) failed: %v", err)
	}
	if _, ok := local.(*LocalEngine); !ok {
		t.Fatalf("expected LocalEngine, got %T", local)
	}

	if _, err := NewFromConfig(configWhisper("cloud", "")); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}
