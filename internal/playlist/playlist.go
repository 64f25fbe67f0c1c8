package playlist

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"
)

const defaultTimeout = 2 * time.Minute

// Entry is a single video discovered inside a playlist.
type Entry struct {
	VideoID string
	Title   string
	URL     string
}

// Expander resolves playlist URLs into their member videos.
type Expander struct {
	timeout time.Duration
	fetch   func(ctx context.Context, playlistID string) ([]Entry, error)
}

// NewExpander builds a playlist expander backed by the ytdlp library.
func NewExpander() *Expander {
	e := &Expander{timeout: defaultTimeout}
	e.fetch = e.fetchLibrary
	return e
}

// WithFetcher overrides the playlist item source (for testing).
func (e *Expander) WithFetcher(fetch func(ctx context.Context, playlistID string) ([]Entry, error)) {
	if fetch != nil {
		e.fetch = fetch
	}
}

// SetTimeout overrides the expansion deadline.
func (e *Expander) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		e.timeout = timeout
	}
}

// IsPlaylistURL reports whether input carries a playlist identifier.
func IsPlaylistURL(input string) bool {
	return ExtractPlaylistID(input) != ""
}

// ExtractPlaylistID pulls the playlist identifier out of a URL, or returns
// an empty string when none is present.
func ExtractPlaylistID(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	if id := parsed.Query().Get("list"); id != "" {
		return id
	}
	// youtube.com/playlist?list=... handled above; accept bare ids too.
	if strings.HasPrefix(trimmed, "PL") || strings.HasPrefix(trimmed, "UU") || strings.HasPrefix(trimmed, "OL") {
		if !strings.ContainsAny(trimmed, "/?&=") {
			return trimmed
		}
	}
	return ""
}

// Expand resolves every video inside the playlist URL.
func (e *Expander) Expand(ctx context.Context, input string) ([]Entry, error) {
	playlistID := ExtractPlaylistID(input)
	if playlistID == "" {
		return nil, fmt.Errorf("no playlist id in %q", input)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	entries, err := e.fetch(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("expand playlist %s: %w", playlistID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("playlist %s has no videos", playlistID)
	}
	return entries, nil
}

func (e *Expander) fetchLibrary(ctx context.Context, playlistID string) ([]Entry, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item.VideoID == "" {
			continue
		}
		entries = append(entries, Entry{
			VideoID: item.VideoID,
			Title:   item.Title,
			URL:     "https://www.youtube.com/watch?v=" + item.VideoID,
		})
	}
	return entries, nil
}
