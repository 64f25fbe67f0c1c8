package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"ytscribe/internal/config"
)

// Requirement defines an external dependency ytscribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements derives the external binary set implied by the configuration.
// yt-dlp is always required for the audio fallback path; the whisper CLI is
// only required when the local engine is selected. ffmpeg is optional since
// yt-dlp only invokes it for streams that need conversion or merging.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Downloader.Binary,
			Description: "audio downloader for the transcription fallback path",
		},
		{
			Name:        "ffmpeg",
			Command:     "ffmpeg",
			Description: "audio conversion used by yt-dlp for some streams",
			Optional:    true,
		},
	}
	if !cfg.WhisperUsesAPI() {
		reqs = append(reqs, Requirement{
			Name:        "whisper",
			Command:     cfg.Whisper.LocalBinary,
			Description: "local speech-to-text engine",
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired filters statuses down to unavailable required dependencies.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
