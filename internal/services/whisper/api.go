package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultAPIBaseURL = "https://api.openai.com/v1"
	defaultAPIModel   = "whisper-1"
	defaultAPITimeout = 10 * time.Minute
)

// APIConfig captures the settings for the hosted transcription endpoint.
type APIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// APIEngine sends audio to an OpenAI-compatible /audio/transcriptions endpoint.
type APIEngine struct {
	cfg        APIConfig
	httpClient *http.Client
	maxElapsed time.Duration
}

// APIOption customizes the engine.
type APIOption func(*APIEngine)

// WithAPIHTTPClient overrides the default HTTP client.
func WithAPIHTTPClient(client *http.Client) APIOption {
	return func(e *APIEngine) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithAPIRetryMaxElapsed bounds the total time spent retrying a request.
func WithAPIRetryMaxElapsed(d time.Duration) APIOption {
	return func(e *APIEngine) {
		if d > 0 {
			e.maxElapsed = d
		}
	}
}

// NewAPIEngine constructs the hosted engine using the supplied configuration.
func NewAPIEngine(cfg APIConfig, opts ...APIOption) *APIEngine {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultAPIModel
	}
	timeout := defaultAPITimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	engine := &APIEngine{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		maxElapsed: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Name identifies the engine for logging and transcript headers.
func (e *APIEngine) Name() string {
	return "whisper-api (" + e.cfg.Model + ")"
}

// HealthCheck verifies the API key is configured.
func (e *APIEngine) HealthCheck(ctx context.Context) error {
	if e.cfg.APIKey == "" {
		return errors.New("whisper api: api key required")
	}
	return nil
}

type apiResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe uploads the audio file and returns the recognized text.
func (e *APIEngine) Transcribe(ctx context.Context, path string) (Result, error) {
	var empty Result
	if e.cfg.APIKey == "" {
		return empty, errors.New("whisper api: api key required")
	}
	if strings.TrimSpace(path) == "" {
		return empty, errors.New("whisper api: audio path required")
	}

	var parsed apiResponse
	operation := func() error {
		resp, err := e.upload(ctx, path)
		if err != nil {
			return err
		}
		parsed = resp
		return nil
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxElapsedTime = e.maxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return empty, err
	}

	result := Result{
		Text:     strings.TrimSpace(parsed.Text),
		Language: parsed.Language,
		Model:    e.cfg.Model,
	}
	for _, seg := range parsed.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: time.Duration(seg.Start * float64(time.Second)),
			End:   time.Duration(seg.End * float64(time.Second)),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	if result.Text == "" {
		return empty, errors.New("whisper api: empty transcription")
	}
	return result, nil
}

func (e *APIEngine) upload(ctx context.Context, path string) (apiResponse, error) {
	var parsed apiResponse

	file, err := os.Open(path)
	if err != nil {
		return parsed, backoff.Permanent(fmt.Errorf("whisper api: open audio: %w", err))
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return parsed, backoff.Permanent(fmt.Errorf("whisper api: build form: %w", err))
	}
	if _, err := io.Copy(part, file); err != nil {
		return parsed, backoff.Permanent(fmt.Errorf("whisper api: read audio: %w", err))
	}
	if err := writer.WriteField("model", e.cfg.Model); err != nil {
		return parsed, backoff.Permanent(err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return parsed, backoff.Permanent(err)
	}
	if err := writer.Close(); err != nil {
		return parsed, backoff.Permanent(err)
	}

	endpoint := e.cfg.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return parsed, backoff.Permanent(fmt.Errorf("whisper api: new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return parsed, backoff.Permanent(ctx.Err())
		}
		return parsed, fmt.Errorf("whisper api: http error: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return parsed, fmt.Errorf("whisper api: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return parsed, fmt.Errorf("whisper api: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	default:
		return parsed, backoff.Permanent(fmt.Errorf("whisper api: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	if err := json.Unmarshal(payload, &parsed); err != nil {
		return parsed, backoff.Permanent(fmt.Errorf("whisper api: decode response: %w", err))
	}
	if parsed.Error != nil {
		return parsed, backoff.Permanent(fmt.Errorf("whisper api: %s", parsed.Error.Message))
	}
	return parsed, nil
}
