package httpapi

import (
	"context"
	"net/http"

	"github.com/sitebloom/storefront-client/core/order"
)

type OrderClient struct {
	*Client
}

func (c *OrderClient) Create(ctx context.Context, no order.New) (order.Order, error) {
	var ord order.Order
	if err := c.do(ctx, http.MethodPost, "/orders/create_order/", no, &ord); err != nil {
		return order.Order{}, err
	}
	return ord, nil
}
