package innertube

import "time"

// VideoDetails captures the identification payload extracted from the
// watch-page player response.
type VideoDetails struct {
	VideoID          string
	Title            string
	Author           string
	LengthSeconds    int64
	ViewCount        int64
	ShortDescription string
	IsLive           bool
}

// CaptionTrack describes a caption track advertised by the player response.
// Kind is "asr" for speech-recognition generated tracks and empty for
// manually authored ones.
type CaptionTrack struct {
	BaseURL      string
	LanguageCode string
	Kind         string
	Name         string
}

// Generated reports whether the track was produced by speech recognition.
func (t CaptionTrack) Generated() bool {
	return t.Kind == "asr"
}

// Segment is a single timed caption cue.
type Segment struct {
	Start    time.Duration
	Duration time.Duration
	Text     string
}

// Transcript bundles the fetched cues with track provenance.
type Transcript struct {
	VideoID   string
	Language  string
	Generated bool
	Segments  []Segment
}
