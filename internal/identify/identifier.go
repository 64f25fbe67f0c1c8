package identify

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"ytscribe/internal/config"
	"ytscribe/internal/logging"
	"ytscribe/internal/queue"
	"ytscribe/internal/services"
	"ytscribe/internal/services/innertube"
	"ytscribe/internal/stage"
)

// PlayerClient is the watch-page surface the identifier needs.
type PlayerClient interface {
	Player(ctx context.Context, videoID string) (innertube.VideoDetails, []innertube.CaptionTrack, error)
}

// Identifier resolves video metadata from the watch page before any
// transcript work begins.
type Identifier struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client PlayerClient
}

// NewIdentifier constructs the identification stage handler using default dependencies.
func NewIdentifier(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Identifier {
	client := innertube.NewClient(innertube.Config{
		RequestTimeout: time.Duration(cfg.Captions.RequestTimeout) * time.Second,
		RequestsPerMin: cfg.Captions.RequestsPerMin,
	})
	return NewIdentifierWithDependencies(cfg, store, logger, client)
}

// NewIdentifierWithDependencies allows injecting collaborators (used in tests).
func NewIdentifierWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client PlayerClient) *Identifier {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "identifier"))
	}
	return &Identifier{store: store, cfg: cfg, logger: stageLogger, client: client}
}

func (id *Identifier) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, id.logger)
	item.InitProgress("Identifying", "Fetching video metadata")
	logger.Info("starting identification", logging.String("source_url", strings.TrimSpace(item.SourceURL)))
	return nil
}

func (id *Identifier) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, id.logger)

	videoID := strings.TrimSpace(item.VideoID)
	if videoID == "" {
		extracted, err := innertube.ExtractVideoID(item.SourceURL)
		if err != nil {
			return services.Wrap(
				services.ErrValidation,
				"identifying",
				"parse url",
				"Could not find a video id in the source URL; check that the URL points at a single video",
				err,
			)
		}
		videoID = extracted
	}

	id.updateProgress(ctx, item, "Fetching watch page", 30)
	details, _, err := id.client.Player(ctx, videoID)
	if err != nil {
		if errors.Is(err, innertube.ErrVideoUnavailable) {
			return services.Wrap(services.ErrNotFound, "identifying", "fetch player", "Video is unavailable or private", err)
		}
		return services.Wrap(services.ErrExternalTool, "identifying", "fetch player", "Failed to fetch video metadata", err)
	}
	if details.IsLive {
		return services.Wrap(
			services.ErrValidation,
			"identifying",
			"validate video",
			"Live streams cannot be transcribed; retry after the stream ends",
			nil,
		)
	}

	meta := queue.VideoMetadata{
		VideoID:         videoID,
		Title:           details.Title,
		Channel:         details.Author,
		DurationSeconds: details.LengthSeconds,
		ViewCount:       details.ViewCount,
		Description:     details.ShortDescription,
		Live:            details.IsLive,
	}
	if err := item.ApplyMetadata(meta); err != nil {
		return services.Wrap(services.ErrTransient, "identifying", "encode metadata", "Failed to encode video metadata", err)
	}

	item.SetProgressComplete("Identified", "Metadata resolved")
	logger.Info(
		"identification completed",
		logging.String("video_id", videoID),
		logging.String("title", strings.TrimSpace(details.Title)),
		logging.Int64("duration_seconds", details.LengthSeconds),
	)
	return nil
}

// HealthCheck verifies identification prerequisites.
func (id *Identifier) HealthCheck(ctx context.Context) stage.Health {
	const name = "identifier"
	if id.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if id.client == nil {
		return stage.Unhealthy(name, "watch-page client unavailable")
	}
	return stage.Healthy(name)
}

func (id *Identifier) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, id.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := id.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist identification progress", logging.Error(err))
		return
	}
	*item = copy
}
