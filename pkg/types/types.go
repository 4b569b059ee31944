// Package domain defines the core business types for the collection watcher.
package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of decimal places aggregate totals are
// rounded to.
const PricePrecision int32 = 10

// PartnerID is the partner identifier sent with every marketplace request.
const PartnerID = 0

// CollectionSummary identifies one marketplace collection.
type CollectionSummary struct {
	ID   int64  `json:"id"   validate:"gt=0"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// PersistedState is the single durable record of the last collection the
// watcher has seen.
type PersistedState struct {
	CollectionSummary
	DetectedAt time.Time `json:"detected_at"`
}

// LastSeenID returns the id of the recorded collection, or 0 when nothing
// has been recorded.
func (s *PersistedState) LastSeenID() int64 {
	if s == nil {
		return 0
	}
	return s.ID
}

// IsNewer reports whether c should replace the recorded state. A nil state
// means nothing has been seen yet, so every collection is new.
func (s *PersistedState) IsNewer(c *CollectionSummary) bool {
	if s == nil {
		return true
	}
	return c.ID > s.ID
}

// NFTItem is a single item belonging to a collection.
type NFTItem struct {
	ID    int64           `json:"id"    validate:"gt=0"`
	Price decimal.Decimal `json:"price"`
}

// AggregatePayload summarizes the prices of one page of collection items.
type AggregatePayload struct {
	Total      decimal.Decimal
	NFTs       []int64
	NFTsPrices map[int64]decimal.Decimal
	PartnerID  int
}

// aggregatePayloadJSON is the wire form of AggregatePayload. Decimals are
// emitted as JSON numbers rather than strings.
type aggregatePayloadJSON struct {
	Total      json.Number            `json:"total"`
	NFTs       []int64                `json:"nfts"`
	NFTsPrices map[string]json.Number `json:"nftsPrices"`
	PartnerID  int                    `json:"partnerId"`
}

// MarshalJSON encodes the payload as {total, nfts, nftsPrices, partnerId}.
func (p AggregatePayload) MarshalJSON() ([]byte, error) {
	out := aggregatePayloadJSON{
		Total:      json.Number(p.Total.String()),
		NFTs:       p.NFTs,
		NFTsPrices: make(map[string]json.Number, len(p.NFTsPrices)),
		PartnerID:  p.PartnerID,
	}
	if out.NFTs == nil {
		out.NFTs = []int64{}
	}
	for id, price := range p.NFTsPrices {
		out.NFTsPrices[strconv.FormatInt(id, 10)] = json.Number(price.String())
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (p *AggregatePayload) UnmarshalJSON(data []byte) error {
	var in aggregatePayloadJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	total, err := decimal.NewFromString(in.Total.String())
	if err != nil {
		return err
	}

	prices := make(map[int64]decimal.Decimal, len(in.NFTsPrices))
	for k, v := range in.NFTsPrices {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(v.String())
		if err != nil {
			return err
		}
		prices[id] = price
	}

	*p = AggregatePayload{
		Total:      total,
		NFTs:       in.NFTs,
		NFTsPrices: prices,
		PartnerID:  in.PartnerID,
	}
	return nil
}
