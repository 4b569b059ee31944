// Package aggregate sums the prices of one page of a collection's items and
// writes the resulting purchase payload together with a curl command that
// reproduces the purchase request.
package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/donaldgifford/collection-watcher/internal/curl"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	"github.com/donaldgifford/collection-watcher/internal/metrics"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

// DefaultPage is the page requested when the caller does not pick one.
const DefaultPage = 10

const refererPath = "/collections"

// Errors returned by Run.
var (
	ErrMissingCollectionID = errors.New("collection id is required")
	ErrNoItems             = errors.New("no items found for collection")
)

var tracer = otel.Tracer("github.com/donaldgifford/collection-watcher/internal/aggregate")

// Request selects the items to aggregate.
type Request struct {
	CollectionID int64
	Page         int
	PageSize     int
	Token        string
}

// Outputs names the files a run writes.
type Outputs struct {
	PayloadPath string
	CurlPath    string
}

// Aggregator fetches collection items and writes the payload and curl files.
// It holds no state between runs.
type Aggregator struct {
	client    marketplace.Client
	files     fileio.Files
	out       Outputs
	log       *slog.Logger
	siteURL   string
	targetURL string
	pageSize  int
}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// WithSiteURL sets the public site used for the curl origin and referer.
func WithSiteURL(u string) Option {
	return func(a *Aggregator) {
		a.siteURL = u
	}
}

// WithTargetURL overrides the URL embedded in the curl command. It defaults
// to the client's items endpoint.
func WithTargetURL(u string) Option {
	return func(a *Aggregator) {
		a.targetURL = u
	}
}

// WithPageSize sets the page size used when a request does not carry one.
func WithPageSize(n int) Option {
	return func(a *Aggregator) {
		a.pageSize = n
	}
}

// New creates an Aggregator.
func New(c marketplace.Client, files fileio.Files, out Outputs, opts ...Option) *Aggregator {
	a := &Aggregator{
		client: c,
		files:  files,
		out:    out,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run fetches one page of items, builds the payload and writes both output
// files. It returns ErrMissingCollectionID before any network call when the
// id is not positive, and ErrNoItems without writing anything when the page
// is empty.
func (a *Aggregator) Run(ctx context.Context, req Request) (payload *domain.AggregatePayload, err error) {
	defer func() {
		metrics.AggregateRunsTotal.WithLabelValues(runOutcome(err)).Inc()
	}()

	if req.CollectionID <= 0 {
		return nil, ErrMissingCollectionID
	}
	if req.Page <= 0 {
		req.Page = DefaultPage
	}
	if req.PageSize <= 0 {
		req.PageSize = a.pageSize
	}

	ctx, span := tracer.Start(ctx, "aggregate.run")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("collection.id", req.CollectionID),
		attribute.Int("page", req.Page),
	)

	log := a.log.With("collection_id", req.CollectionID, "page", req.Page)
	log.Info("fetching collection items")

	items, err := a.client.FetchItems(ctx, marketplace.ItemsRequest{
		CollectionID: req.CollectionID,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if errors.Is(err, marketplace.ErrNoResults) || (err == nil && len(items) == 0) {
		log.Info("no items found for collection")
		return nil, ErrNoItems
	}
	if err != nil {
		return nil, fmt.Errorf("fetching items: %w", err)
	}

	payload = BuildPayload(items)
	metrics.AggregateItems.Observe(float64(len(items)))
	span.SetAttributes(attribute.Int("items", len(items)))

	if err := a.files.WriteJSON(a.out.PayloadPath, payload); err != nil {
		return nil, fmt.Errorf("writing payload: %w", err)
	}

	command, err := a.renderCurl(req, payload)
	if err != nil {
		return nil, err
	}
	if err := a.files.WriteText(a.out.CurlPath, command); err != nil {
		return nil, fmt.Errorf("writing curl command: %w", err)
	}

	log.Info("aggregate written",
		"items", len(items),
		"total", payload.Total.String(),
		"payload_path", a.out.PayloadPath,
		"curl_path", a.out.CurlPath,
	)
	return payload, nil
}

func (a *Aggregator) renderCurl(req Request, payload *domain.AggregatePayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}

	target := a.targetURL
	if target == "" {
		target = a.client.ItemsURL()
	}

	// Only the numeric id is known here and the site routes collection
	// pages by slug, so the referer points at the collections index.
	var headers []curl.Header
	if a.siteURL != "" {
		headers = curl.DefaultHeaders(a.siteURL, refererPath)
	}

	command, err := curl.Render(curl.Command{
		URL:     target,
		Headers: headers,
		Token:   req.Token,
		Body:    body,
	})
	if err != nil {
		return "", fmt.Errorf("rendering curl command: %w", err)
	}
	return command, nil
}

// BuildPayload sums item prices exactly and rounds the total to
// domain.PricePrecision places. Item order is kept for the id list; the sum
// does not depend on it. A repeated id keeps its last price in the map.
func BuildPayload(items []domain.NFTItem) *domain.AggregatePayload {
	p := &domain.AggregatePayload{
		Total:      decimal.Zero,
		NFTs:       make([]int64, 0, len(items)),
		NFTsPrices: make(map[int64]decimal.Decimal, len(items)),
		PartnerID:  domain.PartnerID,
	}
	for _, it := range items {
		p.Total = p.Total.Add(it.Price)
		p.NFTs = append(p.NFTs, it.ID)
		p.NFTsPrices[it.ID] = it.Price
	}
	p.Total = p.Total.Round(domain.PricePrecision)
	return p
}

func runOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMissingCollectionID):
		return "usage_error"
	case errors.Is(err, ErrNoItems):
		return "no_items"
	default:
		return "error"
	}
}
