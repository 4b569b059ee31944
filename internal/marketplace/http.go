package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/collection-watcher/internal/metrics"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

const (
	collectionsPath = "/panel/collections"
	itemsPath       = "/panel/collections/nfts"

	endpointLatest = "latest"
	endpointItems  = "items"

	maxErrorBody = 512
)

var tracer = otel.Tracer("github.com/donaldgifford/collection-watcher/internal/marketplace")

// HTTPClient implements Client against the marketplace panel API.
type HTTPClient struct {
	baseURL     string
	userAgent   string
	client      *http.Client
	rateLimiter *RateLimiter
}

// Option configures the HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithTimeout sets the per-request transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.client = &http.Client{Timeout: d}
	}
}

// WithRateLimiter injects a rate limiter. When set, every request goes
// through Wait() first.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *HTTPClient) {
		c.rateLimiter = r
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// NewHTTPClient creates a client for the marketplace rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "collection-watcher",
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type latestRequest struct {
	SortBy    string `json:"sortBy"`
	Limit     int    `json:"limit"`
	Page      int    `json:"page"`
	PartnerID int    `json:"partnerId"`
}

type itemsRequest struct {
	Page         int   `json:"page"`
	CollectionID int64 `json:"collectionId"`
	PartnerID    int   `json:"partnerId"`
	Limit        int   `json:"limit,omitempty"`
}

// envelope is the response wrapper shared by every panel endpoint.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		Items []T `json:"items"`
	} `json:"data"`
}

// ItemsURL implements Client.
func (c *HTTPClient) ItemsURL() string {
	return c.baseURL + itemsPath
}

// FetchLatest implements Client by requesting the newest collection.
func (c *HTTPClient) FetchLatest(ctx context.Context) (*domain.CollectionSummary, error) {
	body := latestRequest{
		SortBy:    "newest",
		Limit:     1,
		Page:      1,
		PartnerID: domain.PartnerID,
	}

	items, err := post[domain.CollectionSummary](ctx, c, endpointLatest, c.baseURL+collectionsPath, body)
	if err != nil {
		return nil, err
	}

	latest := items[0]
	if err := validateRecord(&latest); err != nil {
		return nil, err
	}
	return &latest, nil
}

// FetchItems implements Client by requesting one page of collection items.
func (c *HTTPClient) FetchItems(ctx context.Context, req ItemsRequest) ([]domain.NFTItem, error) {
	body := itemsRequest{
		Page:         req.Page,
		CollectionID: req.CollectionID,
		PartnerID:    domain.PartnerID,
		Limit:        req.PageSize,
	}

	items, err := post[domain.NFTItem](ctx, c, endpointItems, c.ItemsURL(), body)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if err := validateRecord(&items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// post sends body to url and returns the decoded items of a successful
// envelope. Every failure is classified as ErrFetchFailed.
func post[T any](ctx context.Context, c *HTTPClient, endpoint, url string, body any) (items []T, err error) {
	ctx, span := tracer.Start(ctx, "marketplace."+endpoint)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.MarketplaceRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		metrics.MarketplaceRequestsTotal.WithLabelValues(endpoint, outcomeLabel(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("marketplace.items", len(items)))
	}()

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %w", ErrFetchFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: creating HTTP request: %w", ErrFetchFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: executing %s request: %w", ErrFetchFailed, endpoint, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %w", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(raw), maxErrorBody),
		}
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: parsing %s response: %w", ErrFetchFailed, endpoint, err)
	}

	if env.Code != 0 {
		return nil, &APIError{Endpoint: endpoint, Code: env.Code, Message: env.Message}
	}

	if env.Data == nil || len(env.Data.Items) == 0 {
		return nil, ErrNoResults
	}

	return env.Data.Items, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoResults):
		return "empty"
	default:
		return "error"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
