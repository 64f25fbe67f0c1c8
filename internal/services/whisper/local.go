package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultLocalBinary  = "whisper"
	defaultLocalModel   = "base"
	defaultLocalTimeout = 60 * time.Minute
)

// LocalConfig captures the settings for the local whisper CLI.
type LocalConfig struct {
	Binary         string
	Model          string
	TimeoutSeconds int
}

// LocalEngine shells out to a locally installed whisper CLI.
type LocalEngine struct {
	cfg           LocalConfig
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewLocalEngine constructs the local engine using the supplied configuration.
func NewLocalEngine(cfg LocalConfig) *LocalEngine {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = defaultLocalBinary
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultLocalModel
	}
	return &LocalEngine{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *LocalEngine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

// Binary returns the configured executable name for preflight checks.
func (e *LocalEngine) Binary() string {
	return e.cfg.Binary
}

// Name identifies the engine for logging and transcript headers.
func (e *LocalEngine) Name() string {
	return "whisper-local (" + e.cfg.Model + ")"
}

// HealthCheck verifies the whisper executable is resolvable on PATH.
func (e *LocalEngine) HealthCheck(ctx context.Context) error {
	if _, err := exec.LookPath(e.cfg.Binary); err != nil {
		return fmt.Errorf("whisper local: %w", err)
	}
	return nil
}

type localOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs the whisper CLI over the audio file and parses the JSON it
// writes next to the audio.
func (e *LocalEngine) Transcribe(ctx context.Context, path string) (Result, error) {
	var empty Result
	if strings.TrimSpace(path) == "" {
		return empty, errors.New("whisper local: audio path required")
	}

	timeout := defaultLocalTimeout
	if e.cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(e.cfg.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outputDir := filepath.Dir(path)
	args := []string{
		path,
		"--model", e.cfg.Model,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if err := e.run(ctx, e.cfg.Binary, args...); err != nil {
		return empty, fmt.Errorf("whisper local: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return empty, fmt.Errorf("whisper local: read output: %w", err)
	}

	var parsed localOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return empty, fmt.Errorf("whisper local: decode output: %w", err)
	}

	result := Result{
		Text:     strings.TrimSpace(parsed.Text),
		Language: parsed.Language,
		Model:    e.cfg.Model,
	}
	for _, seg := range parsed.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: time.Duration(seg.Start * float64(time.Second)),
			End:   time.Duration(seg.End * float64(time.Second)),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	if result.Text == "" {
		return empty, errors.New("whisper local: empty transcription")
	}
	return result, nil
}

func (e *LocalEngine) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
