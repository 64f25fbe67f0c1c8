package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"ytscribe/internal/config"
	"ytscribe/internal/fileutil"
	"ytscribe/internal/logging"
	"ytscribe/internal/queue"
	"ytscribe/internal/services"
	"ytscribe/internal/services/whisper"
	"ytscribe/internal/stage"
	"ytscribe/internal/subtitle"
)

// Transcriber runs speech-to-text over downloaded audio and materializes
// the result as the item transcript.
type Transcriber struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	engine    whisper.Engine
	engineErr error
}

// NewTranscriber constructs the transcription stage handler using the
// engine selected in configuration.
func NewTranscriber(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Transcriber {
	engine, err := whisper.NewFromConfig(cfg.Whisper)
	t := NewTranscriberWithDependencies(cfg, store, logger, engine)
	t.engineErr = err
	return t
}

// NewTranscriberWithDependencies allows injecting collaborators (used in tests).
func NewTranscriberWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, engine whisper.Engine) *Transcriber {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "transcriber"))
	}
	return &Transcriber{store: store, cfg: cfg, logger: stageLogger, engine: engine}
}

func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	item.InitProgress("Transcribing", "Starting speech recognition")
	logger.Info("starting transcription", logging.String("audio_file", strings.TrimSpace(item.AudioFile)))
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)

	if t.engine == nil {
		return services.Wrap(services.ErrConfiguration, "transcribing", "resolve engine", "Speech recognition engine unavailable; check whisper configuration", t.engineErr)
	}
	audioPath := strings.TrimSpace(item.AudioFile)
	if audioPath == "" {
		return services.Wrap(
			services.ErrValidation,
			"transcribing",
			"validate inputs",
			"No audio file present; run the download stage before transcription",
			nil,
		)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "validate inputs", "Audio file is missing from the work directory", err)
	}

	t.updateProgress(ctx, item, fmt.Sprintf("Running %s", t.engine.Name()), 20)
	started := time.Now()
	result, err := t.engine.Transcribe(ctx, audioPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribing", t.engine.Name(), "Speech recognition failed", err)
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return services.Wrap(services.ErrExternalTool, "transcribing", t.engine.Name(), "Speech recognition produced an empty transcript", nil)
	}

	t.updateProgress(ctx, item, "Writing transcript", 80)
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath)) + ".whisper"
	transcriptPath := filepath.Join(t.cfg.Paths.WorkDir, base+".txt")
	if err := fileutil.WriteFileAtomic(transcriptPath, []byte(text+"\n"), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "write transcript", "Failed to write transcript", err)
	}
	item.TranscriptFile = transcriptPath

	if t.cfg.Output.WriteSRT && len(result.Segments) > 0 {
		srtPath := filepath.Join(t.cfg.Paths.WorkDir, base+".srt")
		if err := fileutil.WriteFileAtomic(srtPath, []byte(subtitle.RenderSRT(cuesFromResult(result))), 0o644); err != nil {
			logger.Warn("failed to write whisper subtitles", logging.Error(err))
		} else {
			item.SubtitleFile = srtPath
		}
	}

	item.TranscriptSource = queue.SourceWhisper
	if item.CaptionLanguage == "" && result.Language != "" {
		item.CaptionLanguage = result.Language
	}
	item.SetProgressComplete("Transcribed", fmt.Sprintf("Transcript ready (%d characters)", len(text)))
	logger.Info(
		"transcription completed",
		logging.String("engine", t.engine.Name()),
		logging.String("transcript_file", transcriptPath),
		logging.Int("characters", len(text)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// HealthCheck verifies that the configured engine is usable.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if t.engine == nil {
		detail := "speech recognition engine unavailable"
		if t.engineErr != nil {
			detail = t.engineErr.Error()
		}
		return stage.Unhealthy(name, detail)
	}
	if err := t.engine.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (t *Transcriber) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, t.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := t.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist transcription progress", logging.Error(err))
		return
	}
	*item = copy
}

func cuesFromResult(result whisper.Result) []subtitle.Cue {
	cues := make([]subtitle.Cue, 0, len(result.Segments))
	for _, seg := range result.Segments {
		cues = append(cues, subtitle.Cue{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return cues
}
