package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/analytics"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/types"
)

// submitResult classifies one POST /events outcome.
type submitResult int

const (
	submitAccepted submitResult = iota
	submitDuplicate
)

// Client talks to the analytics HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// do sends a request and decodes a JSON response into out when out is non-nil.
// Any status other than want is an error.
func (c *Client) do(ctx context.Context, method, path string, body, out any, want ...int) (int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if !statusIn(resp.StatusCode, want) {
		return resp.StatusCode, fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func statusIn(code int, want []int) bool {
	for _, w := range want {
		if code == w {
			return true
		}
	}
	return false
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
	return err
}

// Reset clears the service state.
func (c *Client) Reset(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/reset", nil, nil, http.StatusNoContent)
	return err
}

// Initialize rebuilds the service state from the given dataset.
func (c *Client) Initialize(ctx context.Context, tastings []model.TastingRecord, experiences []model.ExperienceRecord) (analytics.InitReport, error) {
	var report analytics.InitReport
	req := types.NewInitializeRequest(tastings, experiences)
	_, err := c.do(ctx, http.MethodPost, "/initialize", req, &report, http.StatusOK)
	return report, err
}

// Submit posts one event. 429 is returned as an error wrapping
// ErrUnexpectedStatus with the status code so callers can back off.
func (c *Client) Submit(ctx context.Context, step Step) (submitResult, int, error) {
	req, err := types.NewEventRequest(step.ID, step.Event)
	if err != nil {
		return 0, 0, err
	}
	var ack types.EnqueueResponse
	code, err := c.do(ctx, http.MethodPost, "/events", req, &ack, http.StatusAccepted, http.StatusOK)
	if err != nil {
		return 0, code, err
	}
	if code == http.StatusOK {
		return submitDuplicate, code, nil
	}
	return submitAccepted, code, nil
}

// Drain blocks until the service queue is idle.
func (c *Client) Drain(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/drain", nil, nil, http.StatusNoContent)
	return err
}

// ComputedMetrics fetches GET /metrics/computed.
func (c *Client) ComputedMetrics(ctx context.Context) (analytics.ComputedMetrics, error) {
	var m analytics.ComputedMetrics
	_, err := c.do(ctx, http.MethodGet, "/metrics/computed", nil, &m, http.StatusOK)
	return m, err
}

// Distribution fetches GET /distributions/{name}.
func (c *Client) Distribution(ctx context.Context, name string) (map[string]int, error) {
	out := map[string]int{}
	_, err := c.do(ctx, http.MethodGet, "/distributions/"+url.PathEscape(name), nil, &out, http.StatusOK)
	return out, err
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	_, err := c.do(ctx, http.MethodGet, "/stats", nil, &out, http.StatusOK)
	return out, err
}
