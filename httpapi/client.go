// Package httpapi is the storefront REST API client: the remote cart
// persistence adapter and the order-creation endpoint. Every request
// carries the customer's bearer token when the auth gate has one.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sitebloom/storefront-client/auth"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL string
	Timeout time.Duration
	Gate    auth.Gate
	Log     logrus.FieldLogger
}

type Client struct {
	baseURL string
	http    *http.Client
	gate    auth.Gate
	log     logrus.FieldLogger
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		gate:    cfg.Gate,
		log:     log,
	}
}

// Cart returns the cart endpoints as a cart.Store implementation.
func (c *Client) Cart() *CartClient {
	return &CartClient{c}
}

// Orders returns the order endpoints as an order.Creator implementation.
func (c *Client) Orders() *OrderClient {
	return &OrderClient{c}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.gate != nil {
		if token := c.gate.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).WithError(err).Debug("api request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: %s", method, path, apiError(data, res.StatusCode))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// apiError digs the human-readable message out of an error body, in
// the order the backend populates the fields, falling back to the raw
// body and finally the status code.
func apiError(data []byte, status int) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Error != "":
			return body.Error
		case body.Message != "":
			return body.Message
		case body.Detail != "":
			return body.Detail
		}
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return fmt.Sprintf("status %d", status)
}
