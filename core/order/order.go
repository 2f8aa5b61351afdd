// Package order holds the request/response boundary of checkout. The
// client builds one New per successful checkout and keeps only the
// returned Order for display; it never mutates an order afterwards.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Completed  Status = "completed"
	Cancelled  Status = "cancelled"
)

// CustomerInfo is the contact block checkout requires. Field names in
// validation messages follow the JSON names the forms use.
type CustomerInfo struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
}

// Item is a line snapshot copied out of the cart at submission time,
// with price and quantity already coerced to numeric types.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// New is the order-creation payload.
type New struct {
	WebsiteSlug string          `json:"website_slug"`
	WebsiteName string          `json:"website_name"`
	Customer    CustomerInfo    `json:"customer"`
	Items       []Item          `json:"items"`
	Total       decimal.Decimal `json:"total"`
}

type Order struct {
	ID          string          `json:"id"`
	WebsiteSlug string          `json:"website_slug"`
	Status      Status          `json:"status"`
	Customer    CustomerInfo    `json:"customer"`
	Items       []Item          `json:"items"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Creator submits an order to the backend.
type Creator interface {
	Create(ctx context.Context, no New) (Order, error)
}
