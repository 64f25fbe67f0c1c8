package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ytscribe/internal/captions"
	"ytscribe/internal/config"
	"ytscribe/internal/deps"
	"ytscribe/internal/download"
	"ytscribe/internal/export"
	"ytscribe/internal/identify"
	"ytscribe/internal/logging"
	"ytscribe/internal/notifications"
	"ytscribe/internal/queue"
	"ytscribe/internal/services/innertube"
	"ytscribe/internal/stageexec"
	"ytscribe/internal/textutil"
	"ytscribe/internal/transcription"
)

// pipelineHandlers carries the stage handlers used by the one-shot path.
type pipelineHandlers struct {
	identifier  stageexec.Handler
	captions    stageexec.Handler
	downloader  stageexec.Handler
	transcriber stageexec.Handler
	exporter    stageexec.Handler
}

func newGrabCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "grab <url>",
		Short: "Transcribe a single video synchronously",
		Long:  "Queue a video and run it through the full pipeline in the foreground, printing the transcript location and a preview when done.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			warnMissingDependencies(cmd, cfg)

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			target := strings.TrimSpace(args[0])
			videoID, err := innertube.ExtractVideoID(target)
			if err != nil {
				videoID = ""
			}
			item, err := store.NewVideo(cmd.Context(), target, videoID, "")
			if err != nil {
				return fmt.Errorf("enqueue video: %w", err)
			}

			notifier := notifications.NewService(cfg)
			handlers := defaultPipelineHandlers(cfg, store, logger)
			if err := runPipeline(cmd.Context(), store, logger, notifier, handlers, item); err != nil {
				return err
			}

			return printGrabResult(cmd, cfg, item)
		},
	}
}

// warnMissingDependencies flags absent binaries up front. The run still
// proceeds because the caption path needs none of them.
func warnMissingDependencies(cmd *cobra.Command, cfg *config.Config) {
	missing := deps.MissingRequired(deps.CheckBinaries(deps.Requirements(cfg)))
	for _, status := range missing {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s not found (%s); the audio fallback will fail without it\n", status.Name, status.Description)
	}
}

func defaultPipelineHandlers(cfg *config.Config, store *queue.Store, logger *slog.Logger) pipelineHandlers {
	return pipelineHandlers{
		identifier:  identify.NewIdentifier(cfg, store, logger),
		captions:    captions.NewFetcher(cfg, store, logger),
		downloader:  download.NewDownloader(cfg, store, logger),
		transcriber: transcription.NewTranscriber(cfg, store, logger),
		exporter:    export.NewExporter(cfg, store, logger),
	}
}

// runPipeline drives an item through consecutive stages until it reaches a
// terminal status. Stage failures are persisted by the executor before the
// error propagates.
func runPipeline(ctx context.Context, store *queue.Store, logger *slog.Logger, notifier notifications.Service, handlers pipelineHandlers, item *queue.Item) error {
	for !queue.IsTerminal(item.Status) {
		opts := stageexec.Options{
			Logger:   logger,
			Store:    store,
			Notifier: notifier,
			Item:     item,
		}
		switch item.Status {
		case queue.StatusPending:
			opts.Handler = handlers.identifier
			opts.StageName = "identifier"
			opts.Processing = queue.StatusIdentifying
			opts.Done = queue.StatusIdentified
		case queue.StatusIdentified:
			opts.Handler = handlers.captions
			opts.StageName = "captions"
			opts.Processing = queue.StatusCaptioning
			opts.Done = queue.StatusCaptioned
		case queue.StatusAwaitingAudio:
			opts.Handler = handlers.downloader
			opts.StageName = "downloader"
			opts.Processing = queue.StatusDownloading
			opts.Done = queue.StatusDownloaded
		case queue.StatusDownloaded:
			opts.Handler = handlers.transcriber
			opts.StageName = "transcriber"
			opts.Processing = queue.StatusTranscribing
			opts.Done = queue.StatusTranscribed
		case queue.StatusCaptioned, queue.StatusTranscribed:
			opts.Handler = handlers.exporter
			opts.StageName = "exporter"
			opts.Processing = queue.StatusExporting
			opts.Done = queue.StatusCompleted
		default:
			return fmt.Errorf("no stage handles status %s", item.Status)
		}
		if err := stageexec.Run(ctx, opts); err != nil {
			return err
		}
	}
	return nil
}

func printGrabResult(cmd *cobra.Command, cfg *config.Config, item *queue.Item) error {
	out := cmd.OutOrStdout()
	switch item.Status {
	case queue.StatusCompleted:
	case queue.StatusReview:
		return fmt.Errorf("item needs review: %s", item.ReviewReason)
	default:
		return fmt.Errorf("transcription failed: %s", item.ErrorMessage)
	}

	fmt.Fprintf(out, "Transcript saved to %s\n", item.FinalFile)
	if item.SummaryFile != "" {
		fmt.Fprintf(out, "Summary saved to %s\n", item.SummaryFile)
	}
	fmt.Fprintf(out, "Source: %s\n", item.TranscriptSource)

	preview, err := transcriptPreview(item.TranscriptFile, cfg.Output.PreviewChars)
	if err != nil || preview == "" {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Preview:")
	fmt.Fprintln(out, preview)
	return nil
}

func transcriptPreview(path string, limit int) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return textutil.Truncate(strings.TrimSpace(string(data)), limit), nil
}
