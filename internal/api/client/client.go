// Package client provides a thin HTTP client for the collection-watcher API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/donaldgifford/collection-watcher/internal/api/handlers"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// Client is a thin HTTP client for the collection-watcher API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client targeting the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// PollResult is the server's report of one poll cycle.
type PollResult struct {
	CycleID     string                   `json:"cycle_id"`
	Outcome     string                   `json:"outcome"`
	Latest      *handlers.CollectionBody `json:"latest,omitempty"`
	PreviousID  int64                    `json:"previous_id"`
	Notified    bool                     `json:"notified"`
	NotifyError string                   `json:"notify_error,omitempty"`
	Persisted   bool                     `json:"persisted"`
	StartedAt   time.Time                `json:"started_at"`
	DurationMS  int64                    `json:"duration_ms"`
}

// State is the recorded last-seen collection.
type State struct {
	handlers.CollectionBody
	DetectedAt time.Time `json:"detected_at"`
}

// AggregateRequest selects the page to aggregate remotely.
type AggregateRequest struct {
	CollectionID int64  `json:"collectionId,omitempty"`
	Page         int    `json:"page,omitempty"`
	PageSize     int    `json:"pageSize,omitempty"`
	Token        string `json:"token,omitempty"`
}

// AggregateResult is the payload written by a remote aggregate run.
type AggregateResult struct {
	Total      json.Number            `json:"total"`
	NFTs       []int64                `json:"nfts"`
	NFTsPrices map[string]json.Number `json:"nftsPrices"`
	PartnerID  int                    `json:"partnerId"`
}

// TriggerPoll runs one poll cycle on the server.
func (c *Client) TriggerPoll(ctx context.Context) (*PollResult, error) {
	var out PollResult
	if err := c.post(ctx, "/api/v1/poll", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetState returns the recorded collection, or ErrNotFound when none exists.
func (c *Client) GetState(ctx context.Context) (*State, error) {
	var out State
	if err := c.get(ctx, "/api/v1/state", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Aggregate runs the collection aggregator on the server.
func (c *Client) Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResult, error) {
	var out AggregateResult
	if err := c.post(ctx, "/api/v1/aggregate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get performs a GET request and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, path string, dst any) error {
	return c.do(ctx, http.MethodGet, path, nil, dst)
}

// post performs a POST request with a JSON body and decodes the response into dst.
func (c *Client) post(ctx context.Context, path string, body, dst any) error {
	return c.do(ctx, http.MethodPost, path, body, dst)
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionRefused(err) {
			return fmt.Errorf("API server not running at %s", c.baseURL)
		}
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, string(respBody))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	if dst != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, dst); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func isConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(err.Error(), "connection refused")
}
