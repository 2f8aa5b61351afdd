package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sitebloom/storefront-client/core/cart"
)

// CartClient implements cart.Store against the remote cart endpoints.
// The server is authoritative; the engine pairs mutations with
// reconciling loads.
type CartClient struct {
	*Client
}

func (c *CartClient) Load(ctx context.Context, websiteSlug string) ([]cart.Item, error) {
	var raw json.RawMessage
	path := "/cart/?website_slug=" + url.QueryEscape(websiteSlug)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeItems(raw)
}

func (c *CartClient) Add(ctx context.Context, item cart.Item) error {
	return c.do(ctx, http.MethodPost, "/cart/add_to_cart/", item, nil)
}

func (c *CartClient) Update(ctx context.Context, itemID string, patch cart.Patch) error {
	return c.do(ctx, http.MethodPatch, "/cart/"+url.PathEscape(itemID)+"/", patch, nil)
}

func (c *CartClient) Remove(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(itemID)+"/", nil, nil)
}

func (c *CartClient) Clear(ctx context.Context, websiteSlug string) error {
	path := "/cart/clear_cart/?website_slug=" + url.QueryEscape(websiteSlug)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// decodeItems accepts both a bare item array and the paginated
// {"results": [...]} envelope the backend uses on list endpoints.
func decodeItems(raw json.RawMessage) ([]cart.Item, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var list []cart.Item
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Results []cart.Item `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding cart items: %w", err)
	}
	return wrapped.Results, nil
}
