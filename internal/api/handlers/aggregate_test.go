package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/collection-watcher/internal/aggregate"
	"github.com/donaldgifford/collection-watcher/internal/api/handlers"
	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

type mockAggregator struct {
	payload *domain.AggregatePayload
	err     error
	got     aggregate.Request
}

func (m *mockAggregator) Run(_ context.Context, req aggregate.Request) (*domain.AggregatePayload, error) {
	m.got = req
	return m.payload, m.err
}

func TestAggregateHandler_Success(t *testing.T) {
	t.Parallel()

	agg := &mockAggregator{payload: &domain.AggregatePayload{
		Total: decimal.RequireFromString("3.5"),
		NFTs:  []int64{1, 2},
		NFTsPrices: map[int64]decimal.Decimal{
			1: decimal.RequireFromString("1.25"),
			2: decimal.RequireFromString("2.25"),
		},
	}}

	_, api := humatest.New(t)
	handlers.RegisterAggregateRoutes(api, handlers.NewAggregateHandler(agg))

	resp := api.Post("/api/v1/aggregate", map[string]any{
		"collectionId": 55,
		"page":         2,
		"token":        "tok",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, int64(55), agg.got.CollectionID)
	assert.Equal(t, 2, agg.got.Page)
	assert.Equal(t, "tok", agg.got.Token)

	body := resp.Body.String()
	assert.Contains(t, body, `"total":"3.5"`)
	assert.Contains(t, body, `"nfts":[1,2]`)
	assert.Contains(t, body, `"1":"1.25"`)
	assert.Contains(t, body, `"partnerId":0`)
}

func TestAggregateHandler_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"missing collection id", aggregate.ErrMissingCollectionID, http.StatusBadRequest},
		{"no items", aggregate.ErrNoItems, http.StatusNotFound},
		{
			"marketplace failure",
			fmt.Errorf("fetching items: %w", &marketplace.APIError{Endpoint: "items", StatusCode: 503}),
			http.StatusBadGateway,
		},
		{"write failure", errors.New("writing payload: read-only"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterAggregateRoutes(api, handlers.NewAggregateHandler(&mockAggregator{err: tt.err}))

			resp := api.Post("/api/v1/aggregate", map[string]any{})
			assert.Equal(t, tt.wantStatus, resp.Code)
		})
	}
}
