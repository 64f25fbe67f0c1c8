package captions

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"ytscribe/internal/config"
	"ytscribe/internal/fileutil"
	"ytscribe/internal/logging"
	"ytscribe/internal/notifications"
	"ytscribe/internal/queue"
	"ytscribe/internal/services"
	"ytscribe/internal/services/innertube"
	"ytscribe/internal/stage"
	"ytscribe/internal/subtitle"
)

// Client is the watch-page surface the caption fetcher needs.
type Client interface {
	Player(ctx context.Context, videoID string) (innertube.VideoDetails, []innertube.CaptionTrack, error)
	Fetch(ctx context.Context, videoID string, track innertube.CaptionTrack) (innertube.Transcript, error)
}

// Fetcher retrieves existing caption tracks and materializes them as the
// item transcript. When no usable track exists the item is rerouted to the
// audio download path.
type Fetcher struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   Client
	notifier notifications.Service
}

// NewFetcher constructs the caption stage handler using default dependencies.
func NewFetcher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Fetcher {
	client := innertube.NewClient(innertube.Config{
		RequestTimeout: time.Duration(cfg.Captions.RequestTimeout) * time.Second,
		RequestsPerMin: cfg.Captions.RequestsPerMin,
	})
	return NewFetcherWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewFetcherWithDependencies allows injecting collaborators (used in tests).
func NewFetcherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, client Client, notifier notifications.Service) *Fetcher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "captions"))
	}
	return &Fetcher{store: store, cfg: cfg, logger: stageLogger, client: client, notifier: notifier}
}

func (f *Fetcher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)
	item.InitProgress("Fetching captions", "Checking available caption tracks")
	logger.Info("starting caption retrieval", logging.String("video_id", item.VideoID))
	return nil
}

func (f *Fetcher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, f.logger)

	videoID := strings.TrimSpace(item.VideoID)
	if videoID == "" {
		return services.Wrap(
			services.ErrValidation,
			"captioning",
			"validate inputs",
			"No video id on the item; identification must run before caption retrieval",
			nil,
		)
	}

	if !f.cfg.Captions.Enabled {
		logger.Info("caption retrieval disabled, routing to audio download")
		f.routeToAudio(ctx, item, "Caption retrieval disabled")
		return nil
	}

	_, tracks, err := f.client.Player(ctx, videoID)
	if err != nil {
		if errors.Is(err, innertube.ErrVideoUnavailable) {
			return services.Wrap(services.ErrNotFound, "captioning", "fetch player", "Video became unavailable", err)
		}
		return services.Wrap(services.ErrExternalTool, "captioning", "fetch player", "Failed to fetch caption track list", err)
	}

	track, err := innertube.SelectTrack(tracks, f.cfg.Captions.Languages, f.cfg.Captions.PreferManual, f.cfg.Captions.AllowGenerated)
	if err != nil {
		if errors.Is(err, innertube.ErrNoCaptions) || errors.Is(err, innertube.ErrNoMatchingTrack) {
			logger.Info(
				"no usable caption track, routing to audio download",
				logging.Int("available_tracks", len(tracks)),
			)
			f.routeToAudio(ctx, item, "No usable caption track")
			return nil
		}
		return services.Wrap(services.ErrExternalTool, "captioning", "select track", "Caption track selection failed", err)
	}

	f.updateProgress(ctx, item, fmt.Sprintf("Downloading %s captions", track.LanguageCode), 40)
	transcript, err := f.client.Fetch(ctx, videoID, track)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "captioning", "fetch track", "Failed to download caption track", err)
	}
	text := transcript.PlainText()
	if strings.TrimSpace(text) == "" {
		logger.Info("caption track was empty, routing to audio download", logging.String("language", track.LanguageCode))
		f.routeToAudio(ctx, item, "Caption track was empty")
		return nil
	}

	f.updateProgress(ctx, item, "Writing caption transcript", 80)
	base := videoID + ".captions"
	transcriptPath := filepath.Join(f.cfg.Paths.WorkDir, base+".txt")
	if err := fileutil.WriteFileAtomic(transcriptPath, []byte(text+"\n"), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "captioning", "write transcript", "Failed to write caption transcript", err)
	}
	item.TranscriptFile = transcriptPath

	if f.cfg.Output.WriteSRT {
		srtPath := filepath.Join(f.cfg.Paths.WorkDir, base+".srt")
		if err := fileutil.WriteFileAtomic(srtPath, []byte(subtitle.RenderSRT(cuesFromTranscript(transcript))), 0o644); err != nil {
			logger.Warn("failed to write caption subtitles", logging.Error(err))
		} else {
			item.SubtitleFile = srtPath
		}
	}

	item.CaptionLanguage = track.LanguageCode
	item.TranscriptSource = queue.SourceCaptions
	item.SetProgressComplete("Captions retrieved", fmt.Sprintf("Captions saved (%s, %d cues)", track.LanguageCode, len(transcript.Segments)))
	logger.Info(
		"caption retrieval completed",
		logging.String("language", track.LanguageCode),
		logging.Bool("generated", track.Generated()),
		logging.Int("segments", len(transcript.Segments)),
		logging.String("transcript_file", transcriptPath),
	)
	return nil
}

// routeToAudio reroutes the item onto the download lane instead of failing.
func (f *Fetcher) routeToAudio(ctx context.Context, item *queue.Item, reason string) {
	logger := logging.WithContext(ctx, f.logger)
	item.Status = queue.StatusAwaitingAudio
	item.SetProgress("Awaiting audio", reason+"; queued for audio download", 100)
	if f.notifier != nil {
		err := f.notifier.Publish(ctx, notifications.EventFallbackEngaged, notifications.Payload{
			"title":  item.DisplayTitle(),
			"reason": reason,
		})
		if err != nil {
			logger.Warn("fallback notification failed", logging.Error(err))
		}
	}
}

// HealthCheck verifies caption retrieval prerequisites.
func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	const name = "captions"
	if f.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if f.client == nil {
		return stage.Unhealthy(name, "watch-page client unavailable")
	}
	if f.cfg.Captions.Enabled && len(f.cfg.Captions.Languages) == 0 {
		return stage.Unhealthy(name, "no caption languages configured")
	}
	return stage.Healthy(name)
}

func (f *Fetcher) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, f.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := f.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist caption progress", logging.Error(err))
		return
	}
	*item = copy
}

func cuesFromTranscript(transcript innertube.Transcript) []subtitle.Cue {
	cues := make([]subtitle.Cue, 0, len(transcript.Segments))
	for _, seg := range transcript.Segments {
		cues = append(cues, subtitle.Cue{
			Start: seg.Start,
			End:   seg.Start + seg.Duration,
			Text:  seg.Text,
		})
	}
	return cues
}
