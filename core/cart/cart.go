// Package cart owns the client-side shopping cart for one website at a
// time: the item list, its derived total, and the optimistic-update /
// reconcile protocol against the selected persistence backend.
package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FlexString decodes from either a JSON string or a JSON number.
// Product and item identifiers arrive as numbers from the catalog API
// and as strings from older persisted carts.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	// not a string, keep the raw number text
	*f = FlexString(b)
	return nil
}

// FlexInt decodes from both 3 and "3"; some stored carts carry
// string-typed quantities.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		d, derr := decimal.NewFromString(s)
		if derr != nil {
			return fmt.Errorf("quantity %q is not numeric: %w", s, err)
		}
		*f = FlexInt(d.IntPart())
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// Website is the store a cart is bound to.
type Website struct {
	Slug string `json:"slug"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is one line of a cart. Identity within a cart is
// (WebsiteSlug, ProductID); ID is the storage identifier, assigned by
// the server for authenticated carts and generated locally for guests.
type Item struct {
	ID           FlexString      `json:"id,omitempty"`
	ProductID    FlexString      `json:"product_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     FlexInt         `json:"quantity"`
	SKU          string          `json:"sku,omitempty"`
	Images       []string        `json:"images,omitempty"`
	ProductImage string          `json:"product_image,omitempty"` // legacy single-image field
	WebsiteSlug  string          `json:"website_slug"`
	AddedAt      time.Time       `json:"added_at"`
}

func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total is always derived from the item list, never stored on its own.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Snapshot is the read-only state the hosting UI renders from.
type Snapshot struct {
	Items   []Item          `json:"items"`
	Total   decimal.Decimal `json:"total"`
	Website Website         `json:"website"`
	Loading bool            `json:"loading"`
	Err     string          `json:"error,omitempty"`
}
