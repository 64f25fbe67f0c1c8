package innertube

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

// cueNoiseRE matches bracketed sound markers like [Music] or [Applause] that
// auto-generated tracks interleave with speech.
var cueNoiseRE = regexp.MustCompile(`\[[^\[\]]*\]`)

type json3Payload struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// parseJSON3 converts the json3 caption payload into timed segments. Events
// without renderable text (window definitions, music markers) are dropped.
func parseJSON3(data []byte) ([]Segment, error) {
	var payload json3Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode json3: %w", err)
	}

	segments := make([]Segment, 0, len(payload.Events))
	for _, event := range payload.Events {
		var builder strings.Builder
		for _, seg := range event.Segs {
			builder.WriteString(seg.UTF8)
		}
		text := cleanCueText(builder.String())
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Start:    time.Duration(event.StartMs) * time.Millisecond,
			Duration: time.Duration(event.DurationMs) * time.Millisecond,
			Text:     text,
		})
	}
	return segments, nil
}

func cleanCueText(text string) string {
	text = html.UnescapeString(text)
	text = cueNoiseRE.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// PlainText joins transcript segments into a single normalized string.
func (t Transcript) PlainText() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, " ")
}
