package innertube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	defaultWatchBase      = "https://www.youtube.com"
	defaultRequestTimeout = 30 * time.Second
	defaultRequestsPerMin = 30
	userAgent             = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	// ErrNoCaptions indicates the video has no caption tracks at all.
	ErrNoCaptions = errors.New("no caption tracks available")
	// ErrNoMatchingTrack indicates tracks exist but none satisfies the language preferences.
	ErrNoMatchingTrack = errors.New("no caption track matches requested languages")
	// ErrVideoUnavailable indicates the player response did not include video details.
	ErrVideoUnavailable = errors.New("video unavailable")
)

// Config captures the runtime settings for the watch-page client.
type Config struct {
	RequestTimeout time.Duration
	RequestsPerMin int
}

// Client fetches player responses and caption tracks from the watch page.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	maxElapsed time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at an alternate host (used in tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithRetryMaxElapsed bounds the total time spent retrying a request.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxElapsed = d
		}
	}
}

// NewClient constructs a watch-page client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = defaultRequestsPerMin
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 2),
		baseURL:    defaultWatchBase,
		maxElapsed: 45 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type playerResponse struct {
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		Author           string `json:"author"`
		LengthSeconds    string `json:"lengthSeconds"`
		ViewCount        string `json:"viewCount"`
		ShortDescription string `json:"shortDescription"`
		IsLiveContent    bool   `json:"isLiveContent"`
		IsLive           bool   `json:"isLive"`
	} `json:"videoDetails"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []struct {
				BaseURL      string `json:"baseUrl"`
				LanguageCode string `json:"languageCode"`
				Kind         string `json:"kind"`
				Name         struct {
					SimpleText string `json:"simpleText"`
					Runs       []struct {
						Text string `json:"text"`
					} `json:"runs"`
				} `json:"name"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

// Player fetches the watch page for a video and returns its details plus the
// advertised caption tracks.
func (c *Client) Player(ctx context.Context, videoID string) (VideoDetails, []CaptionTrack, error) {
	var empty VideoDetails
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return empty, nil, errors.New("video id required")
	}

	body, err := c.fetch(ctx, c.baseURL+"/watch?v="+videoID+"&hl=en")
	if err != nil {
		return empty, nil, err
	}

	raw, err := extractPlayerResponse(string(body))
	if err != nil {
		return empty, nil, err
	}

	var parsed playerResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return empty, nil, fmt.Errorf("decode player response: %w", err)
	}

	if parsed.VideoDetails.VideoID == "" {
		reason := strings.TrimSpace(parsed.PlayabilityStatus.Reason)
		if reason == "" {
			reason = parsed.PlayabilityStatus.Status
		}
		return empty, nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, reason)
	}

	details := VideoDetails{
		VideoID:          parsed.VideoDetails.VideoID,
		Title:            parsed.VideoDetails.Title,
		Author:           parsed.VideoDetails.Author,
		ShortDescription: parsed.VideoDetails.ShortDescription,
		IsLive:           parsed.VideoDetails.IsLive || parsed.VideoDetails.IsLiveContent,
	}
	if secs, err := strconv.ParseInt(parsed.VideoDetails.LengthSeconds, 10, 64); err == nil {
		details.LengthSeconds = secs
	}
	if views, err := strconv.ParseInt(parsed.VideoDetails.ViewCount, 10, 64); err == nil {
		details.ViewCount = views
	}

	var tracks []CaptionTrack
	for _, track := range parsed.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
		name := track.Name.SimpleText
		if name == "" && len(track.Name.Runs) > 0 {
			name = track.Name.Runs[0].Text
		}
		tracks = append(tracks, CaptionTrack{
			BaseURL:      track.BaseURL,
			LanguageCode: track.LanguageCode,
			Kind:         track.Kind,
			Name:         name,
		})
	}

	return details, tracks, nil
}

// SelectTrack picks the best caption track for the ordered language
// preferences. Manual tracks win over generated ones for the same language
// when preferManual is set; generated tracks are skipped entirely unless
// allowGenerated is set.
func SelectTrack(tracks []CaptionTrack, languages []string, preferManual, allowGenerated bool) (CaptionTrack, error) {
	if len(tracks) == 0 {
		return CaptionTrack{}, ErrNoCaptions
	}

	find := func(lang string, generated bool) (CaptionTrack, bool) {
		for _, track := range tracks {
			if track.Generated() != generated {
				continue
			}
			if lang == "" || languageMatches(track.LanguageCode, lang) {
				return track, true
			}
		}
		return CaptionTrack{}, false
	}

	for _, lang := range languages {
		if preferManual {
			if track, ok := find(lang, false); ok {
				return track, nil
			}
			if allowGenerated {
				if track, ok := find(lang, true); ok {
					return track, nil
				}
			}
			continue
		}
		if allowGenerated {
			if track, ok := find(lang, true); ok {
				return track, nil
			}
		}
		if track, ok := find(lang, false); ok {
			return track, nil
		}
	}

	// Fall back to any manual track, then any generated track.
	if track, ok := find("", false); ok {
		return track, nil
	}
	if allowGenerated {
		if track, ok := find("", true); ok {
			return track, nil
		}
	}
	return CaptionTrack{}, ErrNoMatchingTrack
}

func languageMatches(trackLang, wanted string) bool {
	trackLang = strings.ToLower(trackLang)
	wanted = strings.ToLower(wanted)
	if trackLang == wanted {
		return true
	}
	// en-US matches en, pt-BR matches pt.
	if base, _, ok := strings.Cut(trackLang, "-"); ok && base == wanted {
		return true
	}
	return false
}

// Fetch downloads a caption track in json3 format and parses its cues.
func (c *Client) Fetch(ctx context.Context, videoID string, track CaptionTrack) (Transcript, error) {
	if track.BaseURL == "" {
		return Transcript{}, errors.New("caption track has no base url")
	}
	trackURL := track.BaseURL
	if strings.HasPrefix(trackURL, "/") {
		trackURL = c.baseURL + trackURL
	}
	separator := "?"
	if strings.Contains(trackURL, "?") {
		separator = "&"
	}
	body, err := c.fetch(ctx, trackURL+separator+"fmt=json3")
	if err != nil {
		return Transcript{}, err
	}

	segments, err := parseJSON3(body)
	if err != nil {
		return Transcript{}, fmt.Errorf("parse caption track: %w", err)
	}
	if len(segments) == 0 {
		return Transcript{}, fmt.Errorf("%w: track %s is empty", ErrNoCaptions, track.LanguageCode)
	}
	return Transcript{
		VideoID:   videoID,
		Language:  track.LanguageCode,
		Generated: track.Generated(),
		Segments:  segments,
	}, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("http %d from %s", resp.StatusCode, url)
		default:
			io.Copy(io.Discard, resp.Body)
			return backoff.Permanent(fmt.Errorf("http %d from %s", resp.StatusCode, url))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// extractPlayerResponse pulls the ytInitialPlayerResponse JSON object out of
// the watch page HTML by brace matching from the assignment marker.
func extractPlayerResponse(html string) (string, error) {
	const marker = "ytInitialPlayerResponse"
	idx := strings.Index(html, marker)
	if idx < 0 {
		return "", errors.New("player response not found in watch page")
	}
	start := strings.Index(html[idx:], "{")
	if start < 0 {
		return "", errors.New("player response payload missing")
	}
	start += idx

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(html); i++ {
		ch := html[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return html[start : i+1], nil
			}
		}
	}
	return "", errors.New("player response payload truncated")
}
