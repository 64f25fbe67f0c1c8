package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "gpt-4o-mini"
	defaultHTTPTimeout = 120 * time.Second
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible chat completion API for transcript
// summarization.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// WithRetryMaxElapsed bounds the total time spent retrying a request.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxElapsed = d
		}
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		maxElapsed: 90 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model returns the configured model name for logging and output headers.
func (c *Client) Model() string {
	return c.cfg.Model
}

// HealthCheck verifies the API key is configured.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	return nil
}

// Summarize produces a markdown summary of the transcript.
func (c *Client) Summarize(ctx context.Context, title, transcript string) (string, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", errors.New("llm summarize: transcript required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("llm summarize: api key required")
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SummarySystemPrompt},
			{Role: "user", Content: buildSummaryUserPrompt(title, transcript)},
		},
		Temperature: 0.3,
	}
	content, err := c.complete(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("llm summarize: %w", err)
	}
	return strings.TrimSpace(content), nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	operation := func() (string, error) {
		completion, err := c.sendOnce(ctx, payload)
		if err != nil {
			var statusErr *httpStatusError
			if errors.As(err, &statusErr) {
				switch {
				case statusErr.StatusCode == http.StatusTooManyRequests,
					statusErr.StatusCode >= http.StatusInternalServerError:
					if statusErr.RetryAfter > 0 {
						return "", backoff.RetryAfter(int(statusErr.RetryAfter / time.Second))
					}
					return "", err
				default:
					return "", backoff.Permanent(err)
				}
			}
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			return "", err
		}
		if completion.Error != nil {
			return "", backoff.Permanent(fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message)))
		}
		for _, choice := range completion.Choices {
			if text := strings.TrimSpace(choice.Message.Content); text != "" {
				return text, nil
			}
		}
		return "", errors.New("empty completion content")
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	content, err := backoff.Retry(ctx, operation, backoff.WithBackOff(policy), backoff.WithMaxElapsedTime(c.maxElapsed))
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) sendOnce(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, error) {
	var completion chatCompletionResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, backoff.Permanent(fmt.Errorf("encode body: %w", err))
	}
	endpoint := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return completion, backoff.Permanent(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return completion, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return completion, nil
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
