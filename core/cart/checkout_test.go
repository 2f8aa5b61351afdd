package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitebloom/storefront-client/core/order"
	"github.com/sitebloom/storefront-client/fault"
)

type mockCreator struct {
	mu      sync.Mutex
	calls   int
	lastNew order.New
	err     error
	order   order.Order
}

func (m *mockCreator) Create(_ context.Context, no order.New) (order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastNew = no
	if m.err != nil {
		return order.Order{}, m.err
	}
	if m.order.ID == "" {
		m.order = order.Order{ID: "ord-1", Status: order.Pending, WebsiteSlug: no.WebsiteSlug, Total: no.Total}
	}
	return m.order, nil
}

func customer() order.CustomerInfo {
	return order.CustomerInfo{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Phone:   "+44 123 456",
		Address: "12 Analytical Way",
		City:    "London",
		ZipCode: "N1 9GU",
	}
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	te.gate.login("token-1")

	p := Item{ProductID: "p1", Name: "Widget", Price: decimal.NewFromInt(25)}
	srv := p
	srv.ID = "srv-1"
	srv.Quantity = 1
	srv.WebsiteSlug = "demo-store"
	te.remote.loadItems = []Item{srv}

	require.NoError(t, te.AddToCart(ctx, p, 1))

	ord, err := te.Checkout(ctx, customer())
	require.NoError(t, err)
	assert.Equal(t, "ord-1", ord.ID)

	require.Equal(t, 1, te.orders.calls)
	payload := te.orders.lastNew
	assert.Equal(t, "demo-store", payload.WebsiteSlug)
	assert.Equal(t, "Demo Store", payload.WebsiteName)
	require.Len(t, payload.Items, 1)
	assert.True(t, payload.Items[0].Price.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 1, payload.Items[0].Quantity)
	assert.True(t, payload.Total.Equal(decimal.NewFromInt(25)))

	assert.Empty(t, te.Snapshot().Items)
	assert.Equal(t, 1, te.remote.clearCalls)
	assert.Equal(t, 1, te.local.clearCalls)
}

func TestCheckoutEmptyCart(t *testing.T) {
	te := newTestEngine(t)

	_, err := te.Checkout(context.Background(), customer())
	require.Error(t, err)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	assert.Equal(t, "cart is empty", fault.Message(err))
	assert.Equal(t, 0, te.orders.calls)
}

func TestCheckoutWithoutWebsite(t *testing.T) {
	te := newTestEngine(t)
	te.SetWebsite(Website{})

	_, err := te.Checkout(context.Background(), customer())
	require.Error(t, err)
	assert.Equal(t, "no website selected", fault.Message(err))
	assert.Equal(t, 0, te.orders.calls)
}

func TestCheckoutMissingCustomerField(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, te.AddToCart(ctx, widget(), 1))

	info := customer()
	info.Email = ""

	_, err := te.Checkout(ctx, info)
	require.Error(t, err)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	field, ok := fault.Field(err)
	require.True(t, ok)
	assert.Equal(t, "email", field)

	// Validation failures leave the cart untouched.
	assert.Len(t, te.Snapshot().Items, 1)
	assert.Equal(t, 0, te.orders.calls)
}

func TestCheckoutOrderFailureLeavesCart(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, te.AddToCart(ctx, widget(), 2))

	te.orders.err = errors.New("order service down")

	_, err := te.Checkout(ctx, customer())
	require.Error(t, err)
	assert.Equal(t, fault.KindAdapter, fault.KindOf(err))

	snap := te.Snapshot()
	assert.Len(t, snap.Items, 1)
	assert.NotEmpty(t, snap.Err)
	assert.Equal(t, 0, te.local.clearCalls)
}

func TestCheckoutClearFailureStillSucceeds(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, te.AddToCart(ctx, widget(), 1))

	te.local.clearErr = errors.New("storage unavailable")

	ord, err := te.Checkout(ctx, customer())
	require.NoError(t, err, "the order is committed; a failed clear must not fail checkout")
	assert.Equal(t, "ord-1", ord.ID)
	assert.Empty(t, te.Snapshot().Items)
	assert.Empty(t, te.Snapshot().Err)
}

func TestCheckoutCoercesStringTypedStorageValues(t *testing.T) {
	te := newTestEngine(t)

	// Older persisted blobs carry string-typed prices and quantities.
	var stale Item
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "l1",
		"product_id": 7,
		"name": "Widget",
		"price": "25.00",
		"quantity": "2",
		"website_slug": "demo-store"
	}`), &stale))

	te.local.loadItems = []Item{stale}
	ctx := context.Background()
	require.NoError(t, te.Load(ctx))

	_, err := te.Checkout(ctx, customer())
	require.NoError(t, err)

	payload := te.orders.lastNew
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "7", payload.Items[0].ProductID)
	assert.True(t, payload.Items[0].Price.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 2, payload.Items[0].Quantity)
}
