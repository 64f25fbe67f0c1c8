package innertube

import (
	"fmt"
	"regexp"
	"strings"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/v/|youtu\.be/|/embed/|/shorts/|/live/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`^([0-9A-Za-z_-]{11})$`),
}

// ExtractVideoID pulls the 11-character video identifier out of the common
// YouTube URL shapes, or accepts a bare identifier.
func ExtractVideoID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("empty video URL")
	}
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(trimmed); match != nil {
			return match[1], nil
		}
	}
	return "", fmt.Errorf("could not extract video id from %q", trimmed)
}

// IsVideoURL reports whether input looks like something ExtractVideoID can handle.
func IsVideoURL(input string) bool {
	_, err := ExtractVideoID(input)
	return err == nil
}
