package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDownloadAudioUsesConfiguredFormat(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{AudioFormat: "bestaudio[ext=m4a]/bestaudio/best", MaxRetries: 2})

	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		// Simulate yt-dlp writing the output file.
		return os.WriteFile(filepath.Join(dir, "video123.m4a"), []byte("audio"), 0o644)
	})

	path, err := svc.DownloadAudio(context.Background(), "https://youtu.be/video123abc", dir, "video123")
	if err != nil {
		t.Fatalf("DownloadAudio failed: %v", err)
	}
	if filepath.Base(path) != "video123.m4a" {
		t.Fatalf("unexpected download path %q", path)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--format bestaudio[ext=m4a]/bestaudio/best") {
		t.Fatalf("format flag missing: %v", gotArgs)
	}
	if !strings.Contains(joined, "--no-playlist") {
		t.Fatalf("expected --no-playlist: %v", gotArgs)
	}
	if !strings.Contains(joined, "--retries 2") {
		t.Fatalf("expected retries flag: %v", gotArgs)
	}
}

func TestDownloadAudioIgnoresPartialFiles(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{})

	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		if err := os.WriteFile(filepath.Join(dir, "clip.m4a.part"), []byte("partial"), 0o644); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, "clip.webm"), []byte("audio"), 0o644)
	})

	path, err := svc.DownloadAudio(context.Background(), "https://youtu.be/clip", dir, "clip")
	if err != nil {
		t.Fatalf("DownloadAudio failed: %v", err)
	}
	if filepath.Base(path) != "clip.webm" {
		t.Fatalf("expected completed file, got %q", path)
	}
}

func TestDownloadAudioFailsWhenNothingWritten(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil
	})

	if _, err := svc.DownloadAudio(context.Background(), "https://youtu.be/none", dir, "none"); err == nil {
		t.Fatal("expected error when no file was produced")
	}
}

func TestDownloadAudioValidatesInput(t *testing.T) {
	svc := NewService(Config{})
	if _, err := svc.DownloadAudio(context.Background(), "", t.TempDir(), "x"); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := svc.DownloadAudio(context.Background(), "https://youtu.be/x", t.TempDir(), ""); err == nil {
		t.Fatal("expected error for empty base name")
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(Config{})
	if svc.cfg.Binary != DefaultBinary {
		t.Errorf("expected default binary, got %q", svc.cfg.Binary)
	}
	if svc.cfg.AudioFormat != DefaultAudioFormat {
		t.Errorf("expected default format, got %q", svc.cfg.AudioFormat)
	}
	if svc.cfg.DownloadTimeout != defaultDownloadTimeout {
		t.Errorf("expected default timeout, got %v", svc.cfg.DownloadTimeout)
	}
}

func TestProbeDurationNonMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.m4a")
	if err := os.WriteFile(path, []byte("not mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	duration, err := ProbeDuration(path)
	if err != nil {
		t.Fatalf("ProbeDuration failed: %v", err)
	}
	if duration != 0 {
		t.Fatalf("expected zero duration for non-mp3, got %v", duration)
	}
}

func TestDownloadAudioHonorsContext(t *testing.T) {
	svc := NewService(Config{DownloadTimeout: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return ctx.Err()
	})
	if _, err := svc.DownloadAudio(ctx, "https://youtu.be/x", t.TempDir(), "x"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
