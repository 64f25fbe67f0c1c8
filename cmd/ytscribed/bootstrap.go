package main

import (
	"log/slog"

	"ytscribe/internal/captions"
	"ytscribe/internal/config"
	"ytscribe/internal/download"
	"ytscribe/internal/export"
	"ytscribe/internal/identify"
	"ytscribe/internal/queue"
	"ytscribe/internal/transcription"
	"ytscribe/internal/workflow"
)

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) {
	if mgr == nil || cfg == nil {
		return
	}

	mgr.ConfigureStages(workflow.StageSet{
		Identifier:  identify.NewIdentifier(cfg, store, logger),
		Captions:    captions.NewFetcher(cfg, store, logger),
		Downloader:  download.NewDownloader(cfg, store, logger),
		Transcriber: transcription.NewTranscriber(cfg, store, logger),
		Exporter:    export.NewExporter(cfg, store, logger),
	})
}
