// Package config declares the settings the storefront client reads at
// startup. Parsing happens in the binaries via ardanlabs/conf, so the
// same struct serves env vars and flags.
package config

import "time"

type Config struct {
	API  API
	Cart Cart
}

type API struct {
	BaseURL string        `conf:"default:http://localhost:8000/api"`
	Timeout time.Duration `conf:"default:10s"`
}

type Cart struct {
	// ReconcileInterval bounds how often an authenticated cart gets a
	// fresh server load after optimistic edits; ReconcileBurst allows
	// that many back-to-back reloads before the interval applies.
	ReconcileInterval time.Duration `conf:"default:2s"`
	ReconcileBurst    int           `conf:"default:2"`
}
