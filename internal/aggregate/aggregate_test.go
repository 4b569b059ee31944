package aggregate_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/collection-watcher/internal/aggregate"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	"github.com/donaldgifford/collection-watcher/internal/marketplace/mocks"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

const (
	payloadPath = "output/buy_nft_payload.json"
	curlPath    = "output/buy_nft_curl.txt"
	itemsURL    = "https://ortak.example/panel/collections/nfts"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func item(id int64, price string) domain.NFTItem {
	return domain.NFTItem{ID: id, Price: decimal.RequireFromString(price)}
}

func newAggregator(c marketplace.Client, files *fileio.FS, opts ...aggregate.Option) *aggregate.Aggregator {
	opts = append([]aggregate.Option{aggregate.WithLogger(quietLogger())}, opts...)
	return aggregate.New(c, files, aggregate.Outputs{PayloadPath: payloadPath, CurlPath: curlPath}, opts...)
}

func TestBuildPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		items     []domain.NFTItem
		wantTotal string
		wantIDs   []int64
	}{
		{
			name:      "collection 55",
			items:     []domain.NFTItem{item(7, "1.2345678901"), item(3, "2.0")},
			wantTotal: "3.2345678901",
			wantIDs:   []int64{7, 3},
		},
		{
			name:      "exact decimal sum",
			items:     []domain.NFTItem{item(1, "0.1"), item(2, "0.2")},
			wantTotal: "0.3",
			wantIDs:   []int64{1, 2},
		},
		{
			name:      "rounds to ten places",
			items:     []domain.NFTItem{item(1, "0.00000000004"), item(2, "0.00000000002")},
			wantTotal: "0.0000000001",
			wantIDs:   []int64{1, 2},
		},
		{
			name:      "empty",
			items:     nil,
			wantTotal: "0",
			wantIDs:   []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := aggregate.BuildPayload(tt.items)
			assert.Equal(t, tt.wantTotal, p.Total.String())
			assert.Equal(t, tt.wantIDs, p.NFTs)
			assert.Len(t, p.NFTsPrices, len(tt.items))
			assert.Equal(t, domain.PartnerID, p.PartnerID)
			for _, it := range tt.items {
				assert.True(t, it.Price.Equal(p.NFTsPrices[it.ID]))
			}
		})
	}
}

func TestBuildPayload_OrderIndependence(t *testing.T) {
	t.Parallel()

	forward := []domain.NFTItem{item(1, "0.1"), item(2, "0.7"), item(3, "1.3333333333"), item(4, "5")}
	permutations := [][]domain.NFTItem{
		{forward[3], forward[2], forward[1], forward[0]},
		{forward[2], forward[0], forward[3], forward[1]},
	}

	want := aggregate.BuildPayload(forward)
	assert.Equal(t, "7.1333333333", want.Total.String())
	assert.Equal(t, []int64{1, 2, 3, 4}, want.NFTs)

	for _, items := range permutations {
		got := aggregate.BuildPayload(items)
		assert.True(t, want.Total.Equal(got.Total), "total %s != %s", got.Total, want.Total)

		require.Len(t, got.NFTsPrices, len(want.NFTsPrices))
		for id, price := range want.NFTsPrices {
			other, ok := got.NFTsPrices[id]
			require.True(t, ok, "id %d missing from nftsPrices", id)
			assert.True(t, price.Equal(other), "id %d: %s != %s", id, other, price)
		}

		// NFTs keeps fetch order.
		ids := make([]int64, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		assert.Equal(t, ids, got.NFTs)
	}
}

func TestRun_WritesPayloadAndCurl(t *testing.T) {
	t.Parallel()

	files := fileio.NewMemory()
	mc := mocks.NewMockClient(t)
	mc.EXPECT().FetchItems(mock.Anything, marketplace.ItemsRequest{
		CollectionID: 55,
		Page:         10,
		PageSize:     20,
	}).Return([]domain.NFTItem{item(7, "1.2345678901"), item(3, "2.0")}, nil).Once()
	mc.EXPECT().ItemsURL().Return(itemsURL).Once()

	agg := newAggregator(mc, files,
		aggregate.WithPageSize(20),
		aggregate.WithSiteURL("https://ortak.example"),
	)
	payload, err := agg.Run(context.Background(), aggregate.Request{CollectionID: 55, Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "3.2345678901", payload.Total.String())

	raw, err := afero.ReadFile(files.Fs(), payloadPath)
	require.NoError(t, err)
	var written map[string]any
	require.NoError(t, json.Unmarshal(raw, &written))
	assert.InDelta(t, 3.2345678901, written["total"], 1e-12)
	assert.Equal(t, []any{7.0, 3.0}, written["nfts"])
	assert.Equal(t, map[string]any{"7": 1.2345678901, "3": 2.0}, written["nftsPrices"])
	assert.InDelta(t, 0, written["partnerId"], 0)

	command, err := afero.ReadFile(files.Fs(), curlPath)
	require.NoError(t, err)
	text := string(command)
	assert.Contains(t, text, "curl '"+itemsURL+"'")
	assert.Contains(t, text, "-H 'x-auth-token: tok'")
	assert.Contains(t, text, "-H 'referer: https://ortak.example/collections'")
	assert.NotContains(t, text, "/collections/55/")
	assert.Contains(t, text, `--data-raw '{"total":3.2345678901,"nfts":[7,3],"nftsPrices":{"3":2,"7":1.2345678901},"partnerId":0}'`)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	files := fileio.NewMemory()
	mc := mocks.NewMockClient(t)
	mc.EXPECT().FetchItems(mock.Anything, mock.Anything).
		Return([]domain.NFTItem{item(1, "0.1"), item(2, "0.2")}, nil).Times(2)

	agg := newAggregator(mc, files, aggregate.WithTargetURL("https://buy.example/purchase"))
	req := aggregate.Request{CollectionID: 9, Page: 1, Token: "t"}

	_, err := agg.Run(context.Background(), req)
	require.NoError(t, err)
	firstPayload, _ := afero.ReadFile(files.Fs(), payloadPath)
	firstCurl, _ := afero.ReadFile(files.Fs(), curlPath)

	_, err = agg.Run(context.Background(), req)
	require.NoError(t, err)
	secondPayload, _ := afero.ReadFile(files.Fs(), payloadPath)
	secondCurl, _ := afero.ReadFile(files.Fs(), curlPath)

	assert.Equal(t, firstPayload, secondPayload)
	assert.Equal(t, firstCurl, secondCurl)
	assert.Contains(t, string(firstCurl), "curl 'https://buy.example/purchase'")
}

func TestRun_DefaultPageSizeOmitsLimit(t *testing.T) {
	t.Parallel()

	mc := mocks.NewMockClient(t)
	mc.EXPECT().FetchItems(mock.Anything, marketplace.ItemsRequest{
		CollectionID: 9,
		Page:         aggregate.DefaultPage,
	}).Return([]domain.NFTItem{item(1, "0.1")}, nil).Once()
	mc.EXPECT().ItemsURL().Return(itemsURL).Once()

	_, err := newAggregator(mc, fileio.NewMemory()).Run(context.Background(), aggregate.Request{CollectionID: 9})
	require.NoError(t, err)
}

func TestRun_MissingCollectionID(t *testing.T) {
	t.Parallel()

	files := fileio.NewMemory()
	mc := mocks.NewMockClient(t)

	for _, id := range []int64{0, -4} {
		_, err := newAggregator(mc, files).Run(context.Background(), aggregate.Request{CollectionID: id})
		require.ErrorIs(t, err, aggregate.ErrMissingCollectionID)
	}

	ok, err := afero.Exists(files.Fs(), payloadPath)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRun_NoItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []domain.NFTItem
		err   error
	}{
		{name: "empty result error", err: marketplace.ErrNoResults},
		{name: "empty slice", items: []domain.NFTItem{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			files := fileio.NewMemory()
			mc := mocks.NewMockClient(t)
			mc.EXPECT().FetchItems(mock.Anything, mock.Anything).Return(tt.items, tt.err).Once()

			_, err := newAggregator(mc, files).Run(context.Background(), aggregate.Request{CollectionID: 55})
			require.ErrorIs(t, err, aggregate.ErrNoItems)

			for _, p := range []string{payloadPath, curlPath} {
				ok, err := afero.Exists(files.Fs(), p)
				require.NoError(t, err)
				assert.False(t, ok, p)
			}
		})
	}
}

func TestRun_FetchFailure(t *testing.T) {
	t.Parallel()

	mc := mocks.NewMockClient(t)
	mc.EXPECT().FetchItems(mock.Anything, mock.Anything).
		Return(nil, &marketplace.APIError{Endpoint: "items", StatusCode: 500}).Once()

	_, err := newAggregator(mc, fileio.NewMemory()).Run(context.Background(), aggregate.Request{CollectionID: 55})
	require.Error(t, err)
	assert.ErrorIs(t, err, marketplace.ErrFetchFailed)
	assert.False(t, errors.Is(err, aggregate.ErrNoItems))
}

func TestRun_WriteFailure(t *testing.T) {
	t.Parallel()

	mc := mocks.NewMockClient(t)
	mc.EXPECT().FetchItems(mock.Anything, mock.Anything).
		Return([]domain.NFTItem{item(1, "1")}, nil).Once()

	files := fileio.New(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	_, err := newAggregator(mc, files).Run(context.Background(), aggregate.Request{CollectionID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing payload")
}
