package subtitle

import (
	"fmt"
	"strings"
	"time"
)

// Cue is a single timed subtitle entry.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// RenderSRT serializes cues into SubRip format. Cues with empty text are
// skipped; numbering stays contiguous over the emitted cues.
func RenderSRT(cues []Cue) string {
	var b strings.Builder
	index := 1
	for _, cue := range cues {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		end := cue.End
		if end <= cue.Start {
			end = cue.Start + time.Second
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", index, Timestamp(cue.Start), Timestamp(end), text)
		index++
	}
	return b.String()
}

// Timestamp formats a duration as an SRT timestamp (HH:MM:SS,mmm).
func Timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	millis := d.Milliseconds()
	hours := millis / 3_600_000
	millis -= hours * 3_600_000
	minutes := millis / 60_000
	millis -= minutes * 60_000
	seconds := millis / 1000
	millis -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
