package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client is a hand-written SDK for the pyqs admin API: worker
// liveness, internal queue depth, the poison-message log, and the
// worker lifecycle event stream.
type Client struct {
	baseURL string
	opts    *options
	ws      *WebSocketClient
}

// New creates a new Client pointed at an admin API server.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Client{baseURL: baseURL, opts: o}, nil
}

// WorkerRecord mirrors internal/worker.WorkerRecord.
type WorkerRecord struct {
	ID            string `json:"id"`
	Role          string `json:"role"`
	State         string `json:"state"`
	StartedAt     string `json:"started_at"`
	LastHeartbeat string `json:"last_heartbeat"`
}

// WorkerListResponse is the body of GET /admin/workers.
type WorkerListResponse struct {
	Workers []WorkerRecord `json:"workers"`
	Count   int            `json:"count"`
}

// QueueDepthResponse is the body of GET /admin/queue.
type QueueDepthResponse struct {
	Depth int `json:"depth"`
}

// PoisonRecord mirrors internal/queue.PoisonRecord.
type PoisonRecord struct {
	Reason     string `json:"reason"`
	Body       string `json:"body"`
	Task       string `json:"task,omitempty"`
	Detail     string `json:"detail"`
	RecordedAt string `json:"recorded_at"`
}

// PoisonListResponse is the body of GET /admin/poison.
type PoisonListResponse struct {
	Messages []PoisonRecord `json:"messages"`
	Size     int64          `json:"size"`
}

// HealthResponse is the body of GET /admin/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Registry string `json:"registry"`
	Error    string `json:"error,omitempty"`
}

// ErrorResponse is the body returned on non-2xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ListWorkers returns every worker the registry has a live heartbeat for.
func (c *Client) ListWorkers(ctx context.Context) (*WorkerListResponse, error) {
	var out WorkerListResponse
	if err := c.get(ctx, "/admin/workers", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWorker returns a single worker record by ID.
func (c *Client) GetWorker(ctx context.Context, workerID string) (*WorkerRecord, error) {
	var out WorkerRecord
	if err := c.get(ctx, "/admin/workers/"+workerID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetQueueDepth returns the current InternalQueue depth.
func (c *Client) GetQueueDepth(ctx context.Context) (int, error) {
	var out QueueDepthResponse
	if err := c.get(ctx, "/admin/queue", &out); err != nil {
		return 0, err
	}
	return out.Depth, nil
}

// ListPoisonMessages returns up to the most recent 100 poison-log entries.
func (c *Client) ListPoisonMessages(ctx context.Context) (*PoisonListResponse, error) {
	var out PoisonListResponse
	if err := c.get(ctx, "/admin/poison", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearPoisonMessages truncates the poison log.
func (c *Client) ClearPoisonMessages(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/admin/poison")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// CheckHealth reports whether the admin server and its registry
// backend are reachable.
func (c *Client) CheckHealth(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.get(ctx, "/admin/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConnectWebSocket establishes a WebSocket connection for the worker
// lifecycle event stream.
func (c *Client) ConnectWebSocket(ctx context.Context) error {
	if c.ws != nil && c.ws.IsConnected() {
		return nil
	}
	c.ws = newWebSocketClient(c.baseURL, c.opts.apiKey)
	return c.ws.Connect(ctx)
}

// Events returns a channel that receives worker lifecycle events.
// Must call ConnectWebSocket first.
func (c *Client) Events() <-chan *Event {
	if c.ws == nil {
		ch := make(chan *Event)
		close(ch)
		return ch
	}
	return c.ws.Events()
}

// CloseWebSocket closes the WebSocket connection.
func (c *Client) CloseWebSocket() error {
	if c.ws == nil {
		return nil
	}
	return c.ws.Close()
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if err := c.opts.applyHeaders()(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if decErr := json.NewDecoder(resp.Body).Decode(&errResp); decErr == nil && errResp.Message != "" {
			return fmt.Errorf("%s: %s", errResp.Error, errResp.Message)
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
