package ytdlp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tcolgate/mp3"
)

// ProbeDuration measures the playable length of a downloaded audio file.
// Only MP3 streams can be decoded locally; other containers return zero with
// no error so callers can fall back to the metadata duration.
func ProbeDuration(path string) (time.Duration, error) {
	if strings.ToLower(filepath.Ext(path)) != ".mp3" {
		return 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return total, fmt.Errorf("probe duration: decode frame: %w", err)
		}
		total += frame.Duration()
	}
	return total, nil
}
