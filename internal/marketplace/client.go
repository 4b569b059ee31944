// Package marketplace provides the marketplace API client abstracted behind
// an interface for testability.
package marketplace

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

// ErrFetchFailed classifies every failure to obtain usable data from the
// marketplace: transport errors, non-2xx statuses, non-zero application codes,
// undecodable bodies and empty result sets.
var ErrFetchFailed = errors.New("marketplace fetch failed")

// ErrNoResults is returned when the marketplace answers successfully but the
// result set is empty.
var ErrNoResults = fmt.Errorf("%w: empty result set", ErrFetchFailed)

// ItemsRequest selects one page of items from a collection.
type ItemsRequest struct {
	CollectionID int64
	Page         int
	PageSize     int
}

// Client defines the interface for interacting with the marketplace API.
type Client interface {
	// FetchLatest returns the most recently published collection.
	FetchLatest(ctx context.Context) (*domain.CollectionSummary, error)
	// FetchItems returns one page of items for a collection in API order.
	FetchItems(ctx context.Context, req ItemsRequest) ([]domain.NFTItem, error)
	// ItemsURL is the endpoint FetchItems posts to.
	ItemsURL() string
}

// APIError describes a response the marketplace rejected, either at the HTTP
// layer or through a non-zero application code.
type APIError struct {
	Endpoint   string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("marketplace %s error (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("marketplace %s unexpected response code %d: %s", e.Endpoint, e.Code, e.Message)
}

// Unwrap classifies every APIError as ErrFetchFailed.
func (e *APIError) Unwrap() error {
	return ErrFetchFailed
}
