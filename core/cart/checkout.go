package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sitebloom/storefront-client/core/order"
	"github.com/sitebloom/storefront-client/fault"
	"github.com/sitebloom/storefront-client/validate"
)

// Checkout validates the cart and customer, submits an order, and on
// success clears the cart exactly once. Preconditions fail in a fixed
// order, each with its own message: website bound, cart non-empty,
// customer fields complete. A cart-clear failure after the order was
// accepted is logged and swallowed — the order is already committed
// server-side, and a stale cart is recoverable where a lost order is
// not. Every other failure leaves the cart untouched.
func (e *Engine) Checkout(ctx context.Context, info order.CustomerInfo) (order.Order, error) {
	e.setLoading(true)
	defer e.setLoading(false)

	snap := e.Snapshot()

	if snap.Website.Slug == "" {
		err := fault.Validation(errors.New("checkout without a bound website"), "no website selected")
		return order.Order{}, e.fail(err)
	}
	if len(snap.Items) == 0 {
		err := fault.Validation(errors.New("checkout with empty cart"), "cart is empty")
		return order.Order{}, e.fail(err)
	}
	if err := validate.Check(info); err != nil {
		return order.Order{}, e.fail(err)
	}

	no := order.New{
		WebsiteSlug: snap.Website.Slug,
		WebsiteName: snap.Website.Name,
		Customer:    info,
		Items:       make([]order.Item, 0, len(snap.Items)),
		Total:       snap.Total,
	}
	for _, it := range snap.Items {
		no.Items = append(no.Items, order.Item{
			ProductID: string(it.ProductID),
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  int(it.Quantity),
		})
	}

	ord, err := e.orders.Create(ctx, no)
	if err != nil {
		return order.Order{}, e.fail(fault.Adapter(fmt.Errorf("creating order: %w", err)))
	}

	if err := e.ClearCart(ctx); err != nil {
		e.log.WithFields(logrus.Fields{
			"website":  snap.Website.Slug,
			"order_id": ord.ID,
		}).WithError(err).Warn("order created but cart not cleared")
	}

	e.mu.Lock()
	e.state.Err = ""
	e.notifyLocked()
	e.mu.Unlock()

	return ord, nil
}
