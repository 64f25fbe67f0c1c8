package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"ytscribe/internal/config"
	"ytscribe/internal/fileutil"
	"ytscribe/internal/logging"
	"ytscribe/internal/notifications"
	"ytscribe/internal/queue"
	"ytscribe/internal/services"
	"ytscribe/internal/services/llm"
	"ytscribe/internal/stage"
	"ytscribe/internal/textutil"
)

const headerRule = "=================================================="

// Summarizer produces a markdown summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, title, transcript string) (string, error)
}

// Exporter moves finished transcripts into the output directory, rendering
// the final file with a provenance header and an optional summary.
type Exporter struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	summarizer Summarizer
	notifier   notifications.Service
}

// NewExporter constructs the export stage handler using default dependencies.
func NewExporter(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Exporter {
	var summarizer Summarizer
	if cfg.Summary.Enabled && strings.TrimSpace(cfg.Summary.APIKey) != "" {
		summarizer = llm.NewClient(llm.Config{
			APIKey:         cfg.Summary.APIKey,
			BaseURL:        cfg.Summary.BaseURL,
			Model:          cfg.Summary.Model,
			TimeoutSeconds: cfg.Summary.TimeoutSeconds,
		})
	}
	return NewExporterWithDependencies(cfg, store, logger, summarizer, notifications.NewService(cfg))
}

// NewExporterWithDependencies allows injecting collaborators (used in tests).
func NewExporterWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, summarizer Summarizer, notifier notifications.Service) *Exporter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "exporter"))
	}
	return &Exporter{store: store, cfg: cfg, logger: stageLogger, summarizer: summarizer, notifier: notifier}
}

func (e *Exporter) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)
	item.InitProgress("Exporting", "Preparing transcript export")
	logger.Info("starting export", logging.String("transcript_file", strings.TrimSpace(item.TranscriptFile)))
	return nil
}

func (e *Exporter) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, e.logger)

	transcriptPath := strings.TrimSpace(item.TranscriptFile)
	if transcriptPath == "" {
		return services.Wrap(
			services.ErrValidation,
			"exporting",
			"validate inputs",
			"No transcript present; captions or transcription must run before export",
			nil,
		)
	}
	raw, err := os.ReadFile(transcriptPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "exporting", "read transcript", "Transcript file is missing from the work directory", err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return services.Wrap(services.ErrValidation, "exporting", "read transcript", "Transcript file is empty", nil)
	}

	outputDir := strings.TrimSpace(e.cfg.Paths.OutputDir)
	if outputDir == "" {
		return services.Wrap(services.ErrConfiguration, "exporting", "resolve output dir", "Output directory not configured; set output_dir in your ytscribe config.toml", nil)
	}
	if err := fileutil.EnsureDir(outputDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "exporting", "ensure output dir", "Failed to create output directory", err)
	}

	e.updateProgress(ctx, item, "Writing final transcript", 30)
	baseName := textutil.SanitizeFileName(item.DisplayTitle()) + e.cfg.Output.FilenameSuffix
	finalPath := filepath.Join(outputDir, baseName+".txt")
	if !e.cfg.Output.Overwrite {
		finalPath = fileutil.UniquePath(finalPath)
	}
	content := e.renderFinal(item, text)
	if err := fileutil.WriteFileAtomic(finalPath, []byte(content), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "exporting", "write final file", "Failed to write final transcript", err)
	}
	item.FinalFile = finalPath
	logger.Info("final transcript written", logging.String("final_file", finalPath), logging.Int("characters", len(text)))

	if subtitlePath := strings.TrimSpace(item.SubtitleFile); subtitlePath != "" {
		target := strings.TrimSuffix(finalPath, ".txt") + ".srt"
		if err := fileutil.CopyFile(subtitlePath, target); err != nil {
			logger.Warn("failed to copy subtitles to output", logging.Error(err))
		} else {
			item.SubtitleFile = target
		}
	}

	if e.summarizer != nil {
		e.updateProgress(ctx, item, "Summarizing transcript", 60)
		summary, err := e.summarizer.Summarize(ctx, item.DisplayTitle(), text)
		if err != nil {
			logger.Warn("transcript summarization failed", logging.Error(err))
		} else if strings.TrimSpace(summary) != "" {
			summaryPath := strings.TrimSuffix(finalPath, ".txt") + ".md"
			if err := fileutil.WriteFileAtomic(summaryPath, []byte(strings.TrimSpace(summary)+"\n"), 0o644); err != nil {
				logger.Warn("failed to write summary", logging.Error(err))
			} else {
				item.SummaryFile = summaryPath
				logger.Info("summary written", logging.String("summary_file", summaryPath))
			}
		}
	}

	previewChars := e.cfg.Output.PreviewChars
	if previewChars <= 0 {
		previewChars = 300
	}
	logger.Info(
		"transcript preview",
		logging.String("preview", textutil.Truncate(text, previewChars)),
	)

	item.SetProgressComplete("Completed", fmt.Sprintf("Saved to %s", filepath.Base(finalPath)))

	if e.notifier != nil {
		err := e.notifier.Publish(ctx, notifications.EventTranscriptReady, notifications.Payload{
			"title":  item.DisplayTitle(),
			"file":   filepath.Base(finalPath),
			"source": string(item.TranscriptSource),
		})
		if err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	return nil
}

func (e *Exporter) renderFinal(item *queue.Item, text string) string {
	method := string(item.TranscriptSource)
	if method == "" {
		method = "unknown"
	}
	if item.TranscriptSource == queue.SourceCaptions && item.CaptionLanguage != "" {
		method = fmt.Sprintf("%s (%s)", method, item.CaptionLanguage)
	}
	url := strings.TrimSpace(item.SourceURL)
	if url == "" && item.VideoID != "" {
		url = "https://www.youtube.com/watch?v=" + item.VideoID
	}

	var b strings.Builder
	b.WriteString("YouTube Video Transcription\n")
	b.WriteString(headerRule + "\n")
	fmt.Fprintf(&b, "Title: %s\n", item.DisplayTitle())
	fmt.Fprintf(&b, "URL: %s\n", url)
	fmt.Fprintf(&b, "Method: %s\n", method)
	fmt.Fprintf(&b, "Characters: %d\n", len(text))
	b.WriteString(headerRule + "\n\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}

// HealthCheck verifies export prerequisites.
func (e *Exporter) HealthCheck(ctx context.Context) stage.Health {
	const name = "exporter"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.Paths.OutputDir) == "" {
		return stage.Unhealthy(name, "output directory not configured")
	}
	return stage.Healthy(name)
}

func (e *Exporter) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, e.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := e.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist export progress", logging.Error(err))
		return
	}
	*item = copy
}
