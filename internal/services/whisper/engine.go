package whisper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ytscribe/internal/config"
)

// Segment is a timed portion of a recognized transcript.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Result carries the recognized text plus provenance details.
type Result struct {
	Text     string
	Language string
	Model    string
	Segments []Segment
}

// Engine converts an audio file into text.
type Engine interface {
	// Name identifies the engine for logging and transcript headers.
	Name() string
	// Transcribe runs speech recognition over the audio file at path.
	Transcribe(ctx context.Context, path string) (Result, error)
	// HealthCheck verifies the engine is usable without running a job.
	HealthCheck(ctx context.Context) error
}

// NewFromConfig builds the engine selected by the whisper configuration.
func NewFromConfig(cfg config.Whisper) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case config.EngineAPI:
		return NewAPIEngine(APIConfig{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}), nil
	case config.EngineLocal:
		return NewLocalEngine(LocalConfig{
			Binary:         cfg.LocalBinary,
			Model:          cfg.LocalModel,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}), nil
	default:
		return nil, fmt.Errorf("unknown whisper engine %q", cfg.Engine)
	}
}
