package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ytscribe/internal/api"
)

// daemonClient talks to a running ytscribed instance over its HTTP API.
type daemonClient struct {
	baseURL string
	client  *http.Client
}

func newDaemonClient(addr string) *daemonClient {
	base := strings.TrimSpace(addr)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &daemonClient{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// reachable probes the status endpoint with a short deadline.
func (c *daemonClient) reachable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (c *daemonClient) status(ctx context.Context) (api.DaemonStatus, error) {
	var payload api.DaemonStatus
	err := c.get(ctx, "/api/status", nil, &payload)
	return payload, err
}

func (c *daemonClient) queueList(ctx context.Context, statuses []string) (api.QueueListResponse, error) {
	query := url.Values{}
	for _, status := range statuses {
		if trimmed := strings.TrimSpace(status); trimmed != "" {
			query.Add("status", trimmed)
		}
	}
	var payload api.QueueListResponse
	err := c.get(ctx, "/api/queue", query, &payload)
	return payload, err
}

func (c *daemonClient) addVideo(ctx context.Context, videoURL string) (api.QueueItemResponse, error) {
	body, err := json.Marshal(map[string]string{"url": videoURL})
	if err != nil {
		return api.QueueItemResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/queue", bytes.NewReader(body))
	if err != nil {
		return api.QueueItemResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var payload api.QueueItemResponse
	if err := c.do(req, &payload); err != nil {
		return api.QueueItemResponse{}, err
	}
	return payload, nil
}

func (c *daemonClient) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *daemonClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
