// cartcheck runs one scripted pass against a storefront backend: bind
// a website, load its cart, and print the snapshot. Handy for checking
// an environment's cart endpoints without a browser.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/sirupsen/logrus"

	"github.com/sitebloom/storefront-client/auth"
	"github.com/sitebloom/storefront-client/config"
	"github.com/sitebloom/storefront-client/core/cart"
	"github.com/sitebloom/storefront-client/httpapi"
	"github.com/sitebloom/storefront-client/localstore"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(log *logrus.Logger) error {
	const prefix = "STOREFRONT"
	var cfg struct {
		config.Config
		Website string `conf:"default:demo-store"`
		Token   string `conf:"mask"`
	}
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	gate := auth.NewTokenStore()
	if cfg.Token != "" {
		gate.SetToken(cfg.Token)
	}

	api := httpapi.New(httpapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Gate:    gate,
		Log:     log,
	})

	engine := cart.NewEngine(cart.EngineConfig{
		Local:             localstore.New(log),
		Remote:            api.Cart(),
		Orders:            api.Orders(),
		Gate:              gate,
		Log:               log,
		ReconcileInterval: cfg.Cart.ReconcileInterval,
		ReconcileBurst:    cfg.Cart.ReconcileBurst,
	})
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	engine.SetWebsite(cart.Website{Slug: cfg.Website})
	if err := engine.Load(ctx); err != nil {
		return fmt.Errorf("loading cart for website[%s]: %w", cfg.Website, err)
	}

	snap := engine.Snapshot()
	log.WithFields(logrus.Fields{
		"website": cfg.Website,
		"items":   len(snap.Items),
		"total":   snap.Total.String(),
	}).Info("cart loaded")

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	fmt.Println(string(out))

	return nil
}
