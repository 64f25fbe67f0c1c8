package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending       Status = "pending"
	StatusIdentifying   Status = "identifying"
	StatusIdentified    Status = "identified"
	StatusCaptioning    Status = "captioning"
	StatusCaptioned     Status = "captioned"
	StatusAwaitingAudio Status = "awaiting_audio"
	StatusDownloading   Status = "downloading"
	StatusDownloaded    Status = "downloaded"
	StatusTranscribing  Status = "transcribing"
	StatusTranscribed   Status = "transcribed"
	StatusExporting     Status = "exporting"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusReview        Status = "review"
)

// TranscriptSource records which path produced the transcript for an item.
type TranscriptSource string

const (
	SourceCaptions TranscriptSource = "captions"
	SourceWhisper  TranscriptSource = "whisper"
)

// UserStopReason is the review reason set when a user explicitly stops an item.
const UserStopReason = "Stop requested by user"

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusIdentifying,
	StatusIdentified,
	StatusCaptioning,
	StatusCaptioned,
	StatusAwaitingAudio,
	StatusDownloading,
	StatusDownloaded,
	StatusTranscribing,
	StatusTranscribed,
	StatusExporting,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusIdentifying:  {},
	StatusCaptioning:   {},
	StatusDownloading:  {},
	StatusTranscribing: {},
	StatusExporting:    {},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID               int64
	VideoID          string
	SourceURL        string
	Title            string
	Channel          string
	DurationSeconds  int64
	Status           Status
	MetadataJSON     string
	CaptionLanguage  string
	TranscriptSource TranscriptSource
	AudioFile        string
	TranscriptFile   string
	SubtitleFile     string
	FinalFile        string
	SummaryFile      string
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProgressStage    string
	ProgressPercent  float64
	ProgressMessage  string
	LastHeartbeat    *time.Time
	NeedsReview      bool
	ReviewReason     string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status represents an end state.
func IsTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	default:
		return false
	}
}

// IsUserStopReason reports whether a review reason represents a user-initiated stop.
func IsUserStopReason(reason string) bool {
	return strings.EqualFold(strings.TrimSpace(reason), UserStopReason)
}

// InitProgress resets progress fields for a new stage. If ProgressStage is
// currently empty it is set to the provided stage value; otherwise the
// existing stage is preserved to support resume scenarios.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// DisplayTitle returns the best available human-readable name for the item.
func (i Item) DisplayTitle() string {
	if title := strings.TrimSpace(i.Title); title != "" {
		return title
	}
	if i.VideoID != "" {
		return i.VideoID
	}
	return i.SourceURL
}

// StageKey returns the normalized stage identifier used in API/CLI presentation.
func (s Status) StageKey() string {
	switch s {
	case "":
		return ""
	case StatusPending:
		return "planned"
	case StatusCompleted:
		return "final"
	case StatusIdentifying,
		StatusIdentified,
		StatusCaptioning,
		StatusCaptioned,
		StatusAwaitingAudio,
		StatusDownloading,
		StatusDownloaded,
		StatusTranscribing,
		StatusTranscribed,
		StatusExporting,
		StatusFailed,
		StatusReview:
		return string(s)
	default:
		return ""
	}
}

// ProcessingLane partitions workflow into lightweight network fetches and
// heavy audio work (downloads and speech recognition).
type ProcessingLane string

const (
	LaneFetch ProcessingLane = "fetch"
	LaneHeavy ProcessingLane = "heavy"
)

// LaneForItem maps a queue item to its processing lane.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneFetch
	}
	switch item.Status {
	case StatusAwaitingAudio, StatusDownloading, StatusDownloaded, StatusTranscribing:
		return LaneHeavy
	default:
		return LaneFetch
	}
}
