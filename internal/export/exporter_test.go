package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytscribe/internal/fileutil"
	"ytscribe/internal/logging"
	"ytscribe/internal/notifications"
	"ytscribe/internal/queue"
	"ytscribe/internal/services"
	"ytscribe/internal/testsupport"
)

type fakeSummarizer struct {
	summary string
	err     error
	called  bool
}

func (f *fakeSummarizer) Summarize(ctx context.Context, title, transcript string) (string, error) {
	f.called = true
	return f.summary, f.err
}

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func setupCaptionedItem(t *testing.T, store *queue.Store, workDir string) *queue.Item {
	t.Helper()
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "Never Gonna Give You Up")
	item.Status = queue.StatusExporting
	item.TranscriptSource = queue.SourceCaptions
	item.CaptionLanguage = "en"
	item.TranscriptFile = filepath.Join(workDir, "dQw4w9WgXcQ.captions.txt")
	if err := fileutil.WriteFileAtomic(item.TranscriptFile, []byte("never gonna give you up\n"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return item
}

func TestExecuteWritesFinalTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := setupCaptionedItem(t, store, cfg.Paths.WorkDir)

	notifier := &recordingNotifier{}
	exporter := NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, notifier)

	if err := exporter.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := exporter.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	wantPath := filepath.Join(cfg.Paths.OutputDir, "Never Gonna Give You Up_transcription.txt")
	if item.FinalFile != wantPath {
		t.Errorf("expected final file %q, got %q", wantPath, item.FinalFile)
	}
	data, err := os.ReadFile(item.FinalFile)
	if err != nil {
		t.Fatalf("read final file: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "YouTube Video Transcription\n") {
		t.Errorf("expected banner as first line, got:\n%s", content)
	}
	for _, want := range []string{
		"Title: Never Gonna Give You Up",
		"URL: https://youtu.be/dQw4w9WgXcQ",
		"Method: captions (en)",
		"never gonna give you up",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("final file missing %q:\n%s", want, content)
		}
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventTranscriptReady {
		t.Fatalf("expected completion notification, got %v", notifier.events)
	}
	if notifier.payloads[0]["source"] != "captions" {
		t.Errorf("unexpected notification payload %v", notifier.payloads[0])
	}
}

func TestExecuteAvoidsOverwrite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := setupCaptionedItem(t, store, cfg.Paths.WorkDir)

	existing := filepath.Join(cfg.Paths.OutputDir, "Never Gonna Give You Up_transcription.txt")
	if err := fileutil.WriteFileAtomic(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	exporter := NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewNop())
	if err := exporter.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.FinalFile == existing {
		t.Fatal("expected a unique path when the target exists")
	}
	if data, _ := os.ReadFile(existing); string(data) != "old" {
		t.Fatal("existing file was overwritten")
	}
}

func TestExecuteOverwriteEnabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Output.Overwrite = true
	store := testsupport.MustOpenStore(t, cfg)
	item := setupCaptionedItem(t, store, cfg.Paths.WorkDir)

	existing := filepath.Join(cfg.Paths.OutputDir, "Never Gonna Give You Up_transcription.txt")
	if err := fileutil.WriteFileAtomic(existing, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	exporter := NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewNop())
	if err := exporter.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.FinalFile != existing {
		t.Fatalf("expected overwrite of %q, got %q", existing, item.FinalFile)
	}
}

func TestExecuteWritesSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSummary("key"))
	store := testsupport.MustOpenStore(t, cfg)
	item := setupCaptionedItem(t, store, cfg.Paths.WorkDir)

	summarizer := &fakeSummarizer{summary: "## Summary\n\n- point one"}
	exporter := NewExporterWithDependencies(cfg, store, logging.NewNop(), summarizer, notifications.NewNop())

	if err := exporter.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !summarizer.called {
		t.Fatal("expected summarizer to run")
	}
	if item.SummaryFile == "" {
		t.Fatal("expected summary file")
	}
	data, err := os.ReadFile(item.SummaryFile)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(data), "point one") {
		t.Errorf("unexpected summary content %q", data)
	}
}

func TestExecuteSummaryFailureIsNotFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSummary("key"))
	store := testsupport.MustOpenStore(t, cfg)
	item := setupCaptionedItem(t, store, cfg.Paths.WorkDir)

	summarizer := &fakeSummarizer{err: errors.New("quota exceeded")}
	exporter := NewExporterWithDependencies(cfg, store, logging.NewNop(), summarizer, notifications.NewNop())

	if err := exporter.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if item.SummaryFile != "" {
		t.Fatal("expected no summary file after failure")
	}
	if item.FinalFile == "" {
		t.Fatal("final file should still be written")
	}
}

func TestExecuteCopiesSubtitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := setupCaptionedItem(t, store, cfg.Paths.WorkDir)

	item.SubtitleFile = filepath.Join(cfg.Paths.WorkDir, "dQw4w9WgXcQ.captions.srt")
	if err := fileutil.WriteFileAtomic(item.SubtitleFile, []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n\n"), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}

	exporter := NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewNop())
	if err := exporter.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if filepath.Dir(item.SubtitleFile) != cfg.Paths.OutputDir {
		t.Fatalf("expected subtitles in output dir, got %q", item.SubtitleFile)
	}
	if _, err := os.Stat(item.SubtitleFile); err != nil {
		t.Fatalf("stat subtitles: %v", err)
	}
}

func TestExecuteRequiresTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewVideo(t, store, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "")

	exporter := NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewNop())
	err := exporter.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatal("expected review routing")
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	exporter := NewExporterWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewNop())
	if health := exporter.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %#v", health)
	}

	cfg.Paths.OutputDir = ""
	if health := exporter.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without output dir")
	}
}
