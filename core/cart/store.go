package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store moves opaque item records in and out of a storage backend. A
// Store never interprets cart semantics; merging, totals, and identity
// rules stay in the engine.
//
// The local implementation is synchronous in effect but carries the
// same contract so the engine can swap backends per operation.
type Store interface {
	Load(ctx context.Context, websiteSlug string) ([]Item, error)
	Add(ctx context.Context, item Item) error
	Update(ctx context.Context, itemID string, patch Patch) error
	Remove(ctx context.Context, itemID string) error
	Clear(ctx context.Context, websiteSlug string) error
}

// Patch carries the full mutable state of a line so a backend can
// overwrite the record without a read-modify-write round trip.
type Patch struct {
	Quantity FlexInt         `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Name     string          `json:"name"`
	Images   []string        `json:"images,omitempty"`
}
