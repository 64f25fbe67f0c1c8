package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeChars   = regexp.MustCompile(`[<>:"/\\|?*]`)
	collapseRuns  = regexp.MustCompile(`[\s.]{2,}`)
	controlChars  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	maxNameLength = 200
)

// SanitizeFileName converts a video title into a safe filename component.
// Unsafe characters become underscores, runs of whitespace and dots collapse
// to a single underscore, and the result is NFC-normalized and capped at 200
// characters.
func SanitizeFileName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "untitled"
	}
	name = controlChars.ReplaceAllString(name, "")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = collapseRuns.ReplaceAllString(name, "_")
	name = strings.Trim(name, " ._")
	if name == "" {
		return "untitled"
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		runes := []rune(name)
		name = strings.Trim(string(runes[:maxNameLength]), " ._")
	}
	return name
}

// SanitizeToken converts a string to a lowercase filesystem-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept, everything
// else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// Truncate shortens text to at most limit runes, appending an ellipsis when
// content was dropped. A limit <= 0 returns the text unchanged.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
