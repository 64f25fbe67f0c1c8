package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBinary is the yt-dlp executable looked up on PATH.
	DefaultBinary = "yt-dlp"
	// DefaultAudioFormat prefers m4a audio with progressive fallbacks.
	DefaultAudioFormat = "bestaudio[ext=m4a]/bestaudio/best"

	defaultDownloadTimeout = 30 * time.Minute
	defaultMaxRetries      = 3
)

// Config captures the runtime settings for audio downloads.
type Config struct {
	Binary          string
	AudioFormat     string
	DownloadTimeout time.Duration
	MaxRetries      int
}

// Service downloads video audio via the yt-dlp executable.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a download service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.AudioFormat) == "" {
		cfg.AudioFormat = DefaultAudioFormat
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = defaultDownloadTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Binary returns the configured executable name for preflight checks.
func (s *Service) Binary() string {
	return s.cfg.Binary
}

// DownloadAudio fetches the best available audio stream for a video into
// destDir using baseName as the filename stem. It returns the path of the
// downloaded file, whose extension depends on the selected stream.
func (s *Service) DownloadAudio(ctx context.Context, url, destDir, baseName string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("download audio: url required")
	}
	if strings.TrimSpace(baseName) == "" {
		return "", fmt.Errorf("download audio: base name required")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("download audio: ensure dest dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DownloadTimeout)
	defer cancel()

	template := filepath.Join(destDir, baseName+".%(ext)s")
	args := []string{
		"--format", s.cfg.AudioFormat,
		"--no-playlist",
		"--no-progress",
		"--retries", strconv.Itoa(s.cfg.MaxRetries),
		"--output", template,
		url,
	}
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return "", fmt.Errorf("yt-dlp: %w", err)
	}

	path, err := findDownload(destDir, baseName)
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}
	return path, nil
}

// Version reports the installed yt-dlp version, used for health checks.
func (s *Service) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, s.cfg.Binary, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", s.cfg.Binary, err)
	}
	return strings.TrimSpace(string(output)), nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// findDownload locates the file yt-dlp wrote for the output template. The
// extension is chosen by the selected stream so we match on the stem.
func findDownload(destDir, baseName string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(destDir, baseName+".*"))
	if err != nil {
		return "", err
	}
	var best string
	var bestTime time.Time
	for _, match := range matches {
		if strings.HasSuffix(match, ".part") || strings.HasSuffix(match, ".ytdl") {
			continue
		}
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = match
			bestTime = info.ModTime()
		}
	}
	if best == "" {
		return "", fmt.Errorf("no downloaded file found for %s in %s", baseName, destDir)
	}
	return best, nil
}
