package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/collection-watcher/internal/aggregate"
	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

// Aggregator defines the interface for building collection payloads.
type Aggregator interface {
	Run(ctx context.Context, req aggregate.Request) (*domain.AggregatePayload, error)
}

// AggregateHandler handles aggregate requests.
type AggregateHandler struct {
	agg Aggregator
}

// NewAggregateHandler creates a new AggregateHandler.
func NewAggregateHandler(a Aggregator) *AggregateHandler {
	return &AggregateHandler{agg: a}
}

// AggregateInput is the request body for the aggregate endpoint.
type AggregateInput struct {
	Body struct {
		CollectionID int64  `json:"collectionId,omitempty" example:"55" doc:"Collection to aggregate"`
		Page         int    `json:"page,omitempty"         example:"10" doc:"Result page, defaults to 10"`
		PageSize     int    `json:"pageSize,omitempty"     doc:"Items per page, marketplace default when unset"`
		Token        string `json:"token,omitempty"        doc:"Auth token embedded in the curl command"`
	}
}

// AggregateOutput is the response body for the aggregate endpoint.
type AggregateOutput struct {
	Body struct {
		Total      string            `json:"total"      example:"3.5"`
		NFTs       []int64           `json:"nfts"`
		NFTsPrices map[string]string `json:"nftsPrices"`
		PartnerID  int               `json:"partnerId"`
	}
}

// Aggregate fetches one page of items and writes the payload and curl files.
func (h *AggregateHandler) Aggregate(ctx context.Context, in *AggregateInput) (*AggregateOutput, error) {
	payload, err := h.agg.Run(ctx, aggregate.Request{
		CollectionID: in.Body.CollectionID,
		Page:         in.Body.Page,
		PageSize:     in.Body.PageSize,
		Token:        in.Body.Token,
	})
	switch {
	case errors.Is(err, aggregate.ErrMissingCollectionID):
		return nil, huma.Error400BadRequest(err.Error())
	case errors.Is(err, aggregate.ErrNoItems):
		return nil, huma.Error404NotFound(err.Error())
	case errors.Is(err, marketplace.ErrFetchFailed):
		return nil, huma.Error502BadGateway("fetching items failed: " + err.Error())
	case err != nil:
		return nil, huma.Error500InternalServerError("aggregate failed: " + err.Error())
	}

	resp := &AggregateOutput{}
	resp.Body.Total = payload.Total.String()
	resp.Body.NFTs = payload.NFTs
	resp.Body.NFTsPrices = make(map[string]string, len(payload.NFTsPrices))
	for id, price := range payload.NFTsPrices {
		resp.Body.NFTsPrices[strconv.FormatInt(id, 10)] = price.String()
	}
	resp.Body.PartnerID = payload.PartnerID
	return resp, nil
}

// RegisterAggregateRoutes registers the aggregate endpoint with the Huma API.
func RegisterAggregateRoutes(api huma.API, h *AggregateHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "aggregate-collection",
		Method:      http.MethodPost,
		Path:        "/api/v1/aggregate",
		Summary:     "Aggregate collection prices",
		Description: "Fetches one page of collection items, sums their prices, " +
			"and writes the payload and curl files.",
		Tags: []string{"aggregate"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusInternalServerError,
			http.StatusBadGateway,
		},
	}, h.Aggregate)
}
