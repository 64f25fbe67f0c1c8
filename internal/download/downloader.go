package download

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"log/slog"

	"ytscribe/internal/config"
	"ytscribe/internal/logging"
	"ytscribe/internal/queue"
	"ytscribe/internal/services"
	"ytscribe/internal/services/ytdlp"
	"ytscribe/internal/stage"
	"ytscribe/internal/textutil"
)

// AudioDownloader is the download surface the stage needs.
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, url, destDir, baseName string) (string, error)
	Binary() string
}

// Downloader fetches the audio stream for items that could not be served
// from existing captions.
type Downloader struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	downloader AudioDownloader
}

// NewDownloader constructs the download stage handler using default dependencies.
func NewDownloader(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Downloader {
	service := ytdlp.NewService(ytdlp.Config{
		Binary:          cfg.Downloader.Binary,
		AudioFormat:     cfg.Downloader.AudioFormat,
		DownloadTimeout: time.Duration(cfg.Downloader.DownloadTimeout) * time.Second,
		MaxRetries:      cfg.Downloader.MaxRetries,
	})
	return NewDownloaderWithDependencies(cfg, store, logger, service)
}

// NewDownloaderWithDependencies allows injecting collaborators (used in tests).
func NewDownloaderWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, downloader AudioDownloader) *Downloader {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "downloader"))
	}
	return &Downloader{store: store, cfg: cfg, logger: stageLogger, downloader: downloader}
}

func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)
	item.InitProgress("Downloading audio", "Starting audio download")
	logger.Info("starting audio download", logging.String("video_id", item.VideoID))
	return nil
}

func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)

	url := strings.TrimSpace(item.SourceURL)
	if url == "" && item.VideoID != "" {
		url = "https://www.youtube.com/watch?v=" + item.VideoID
	}
	if url == "" {
		return services.Wrap(
			services.ErrValidation,
			"downloading",
			"validate inputs",
			"No source URL or video id available for download",
			nil,
		)
	}

	baseName := item.VideoID
	if baseName == "" {
		baseName = textutil.SanitizeToken(item.DisplayTitle())
	}
	baseName += ".audio"

	d.updateProgress(ctx, item, "Downloading audio stream", 20)
	audioPath, err := d.downloader.DownloadAudio(ctx, url, d.cfg.Paths.WorkDir, baseName)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "downloading", "yt-dlp", "Audio download failed", err)
	}

	info, err := os.Stat(audioPath)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "downloading", "verify output", "Downloaded audio file is missing or empty", err)
	}
	item.AudioFile = audioPath

	if item.DurationSeconds == 0 {
		if probed, probeErr := ytdlp.ProbeDuration(audioPath); probeErr == nil && probed > 0 {
			item.DurationSeconds = int64(probed / time.Second)
		}
	}

	item.SetProgressComplete("Audio downloaded", fmt.Sprintf("Audio saved (%.1f MiB)", float64(info.Size())/(1024*1024)))
	logger.Info(
		"audio download completed",
		logging.String("audio_file", audioPath),
		logging.Int64("size_bytes", info.Size()),
		logging.Int64("duration_seconds", item.DurationSeconds),
	)
	return nil
}

// HealthCheck verifies download prerequisites, including binary availability.
func (d *Downloader) HealthCheck(ctx context.Context) stage.Health {
	const name = "downloader"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if d.downloader == nil {
		return stage.Unhealthy(name, "download service unavailable")
	}
	if strings.TrimSpace(d.cfg.Paths.WorkDir) == "" {
		return stage.Unhealthy(name, "work directory not configured")
	}
	return stage.Healthy(name)
}

func (d *Downloader) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, d.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := d.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist download progress", logging.Error(err))
		return
	}
	*item = copy
}
