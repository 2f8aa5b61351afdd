package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/sitebloom/storefront-client/auth"
	"github.com/sitebloom/storefront-client/core/order"
	"github.com/sitebloom/storefront-client/fault"
	"github.com/sitebloom/storefront-client/rate"
	"github.com/sitebloom/storefront-client/validate"
)

const reconcileTimeout = 10 * time.Second

// Engine is the cart state engine. It owns the in-memory cart for the
// bound website, selects a persistence backend per operation from the
// auth gate, and publishes every externally observable state through
// Snapshot and the subscriber callbacks.
type Engine struct {
	local  Store
	remote Store
	orders order.Creator
	gate   auth.Gate
	log    logrus.FieldLogger

	limiter *rate.Limiter
	group   singleflight.Group
	every   time.Duration

	pendMu  sync.Mutex
	pending map[string]*time.Timer
	closed  bool

	mu      sync.Mutex
	state   Snapshot
	gen     uint64
	subs    map[int]func(Snapshot)
	nextSub int
}

type EngineConfig struct {
	Local  Store
	Remote Store
	Orders order.Creator
	Gate   auth.Gate
	Log    logrus.FieldLogger

	// Debounce settings for post-mutation server reloads. Zero values
	// fall back to one reload per 2s with a burst of 2.
	ReconcileInterval time.Duration
	ReconcileBurst    int
}

func NewEngine(cfg EngineConfig) *Engine {
	interval := cfg.ReconcileInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	burst := cfg.ReconcileBurst
	if burst <= 0 {
		burst = 2
	}

	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}

	return &Engine{
		local:   cfg.Local,
		remote:  cfg.Remote,
		orders:  cfg.Orders,
		gate:    cfg.Gate,
		log:     log,
		limiter: rate.NewLimiter(burst, time.Hour, rate.Every(interval)),
		every:   interval,
		pending: map[string]*time.Timer{},
		subs:    map[int]func(Snapshot){},
	}
}

// Close stops the engine's background debounce bookkeeping and cancels
// any reconcile still waiting on its debounce slot. In-flight
// reconciles finish on their own and are dropped if stale.
func (e *Engine) Close() {
	e.pendMu.Lock()
	e.closed = true
	for slug, timer := range e.pending {
		timer.Stop()
		delete(e.pending, slug)
	}
	e.pendMu.Unlock()
	e.limiter.Stop()
}

// Snapshot returns a copy of the current state. The item slice is
// detached, so callers can hold it across later mutations.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn to run after every published state change and
// returns its cancel function. fn runs with the engine lock held and
// must not call back into the engine.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// SetWebsite binds the cart to a website. Rebinding to the same slug is
// idempotent; a different slug resets the item list, and the caller is
// expected to follow with Load rather than filter stale items.
func (e *Engine) SetWebsite(w Website) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Website == w {
		return
	}
	sameSlug := e.state.Website.Slug == w.Slug
	e.state.Website = w
	if !sameSlug {
		e.state.Items = nil
		e.state.Total = decimal.Zero
		e.gen++
	}
	e.notifyLocked()
}

// Load replaces the item list with the backend's view of the bound
// website, normalizing every record on the way in.
func (e *Engine) Load(ctx context.Context) error {
	e.setLoading(true)
	defer e.setLoading(false)

	slug := e.websiteSlug()
	if slug == "" {
		return e.fail(fault.Validation(errors.New("load without a bound website"), "no website selected"))
	}

	items, err := e.store().Load(ctx, slug)
	if err != nil {
		return e.fail(fault.Adapter(fmt.Errorf("loading cart for website[%s]: %w", slug, err)))
	}
	for i := range items {
		items[i] = Normalize(items[i])
	}

	e.mu.Lock()
	if e.state.Website.Slug == slug {
		e.state.Err = ""
		e.publishLocked(items)
	}
	e.mu.Unlock()
	return nil
}

// AddToCart merges the product into the cart by (website, product)
// identity and publishes the result before the backend confirms. On
// adapter failure the optimistic state is kept: for adds, a briefly
// stale list beats flickering the line back out of the UI. The
// authenticated path schedules a debounced reload afterwards to fold in
// server-assigned item IDs.
func (e *Engine) AddToCart(ctx context.Context, product Item, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}
	e.setLoading(true)
	defer e.setLoading(false)

	slug := e.websiteSlug()
	if slug == "" {
		return e.fail(fault.Validation(errors.New("add without a bound website"), "no website selected"))
	}

	authed := e.gate.IsAuthenticated()
	st := e.store()

	p := Normalize(product)
	p.WebsiteSlug = slug

	e.mu.Lock()
	items := cloneItems(e.state.Items)
	var rec Item
	if idx := indexOf(items, slug, string(p.ProductID)); idx >= 0 {
		items[idx].Quantity += FlexInt(quantity)
		rec = items[idx]
	} else {
		rec = p
		rec.Quantity = FlexInt(quantity)
		rec.AddedAt = time.Now().UTC()
		if rec.ID == "" && !authed {
			rec.ID = FlexString(validate.GenerateID())
		}
		items = append(items, rec)
	}
	e.state.Err = ""
	e.publishLocked(items)
	e.mu.Unlock()

	if err := st.Add(ctx, SanitizeOutbound(rec)); err != nil {
		err = fault.Adapter(fmt.Errorf("adding product[%s] to cart: %w", p.ProductID, err))
		e.log.WithFields(logrus.Fields{
			"website":    slug,
			"product_id": p.ProductID,
		}).WithError(err).Warn("cart add not persisted, keeping optimistic state")
		return e.fail(err)
	}

	if authed {
		e.scheduleReconcile(slug)
	}
	return nil
}

// UpdateQuantity sets the line's quantity. Zero or negative delegates
// to RemoveFromCart. Unlike AddToCart, a backend rejection rolls the
// item list back to the exact pre-update state; for edits, consistency
// with the server wins over optimism.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return e.RemoveFromCart(ctx, productID)
	}
	e.setLoading(true)
	defer e.setLoading(false)

	slug := e.websiteSlug()
	if slug == "" {
		return e.fail(fault.Validation(errors.New("update without a bound website"), "no website selected"))
	}

	st := e.store()

	e.mu.Lock()
	idx := indexOf(e.state.Items, slug, productID)
	if idx < 0 {
		e.mu.Unlock()
		return e.fail(fault.Validation(fmt.Errorf("product[%s] not in cart", productID), "item is not in the cart"))
	}
	prev := cloneItems(e.state.Items)
	items := cloneItems(e.state.Items)
	items[idx].Quantity = FlexInt(quantity)
	target := items[idx]
	e.state.Err = ""
	e.publishLocked(items)
	e.mu.Unlock()

	patch := Patch{
		Quantity: target.Quantity,
		Price:    target.Price,
		Name:     target.Name,
		Images:   SanitizeOutbound(target).Images,
	}
	if err := st.Update(ctx, string(target.ID), patch); err != nil {
		e.mu.Lock()
		e.publishLocked(prev)
		e.mu.Unlock()
		return e.fail(fault.Adapter(fmt.Errorf("updating quantity of product[%s]: %w", productID, err)))
	}
	return nil
}

// RemoveFromCart drops the line and tells the backend. Removing an
// absent product is a no-op.
func (e *Engine) RemoveFromCart(ctx context.Context, productID string) error {
	e.setLoading(true)
	defer e.setLoading(false)

	slug := e.websiteSlug()
	if slug == "" {
		return e.fail(fault.Validation(errors.New("remove without a bound website"), "no website selected"))
	}

	authed := e.gate.IsAuthenticated()
	st := e.store()

	e.mu.Lock()
	idx := indexOf(e.state.Items, slug, productID)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	target := e.state.Items[idx]
	items := make([]Item, 0, len(e.state.Items)-1)
	items = append(items, e.state.Items[:idx]...)
	items = append(items, e.state.Items[idx+1:]...)
	e.state.Err = ""
	e.publishLocked(items)
	e.mu.Unlock()

	if err := st.Remove(ctx, string(target.ID)); err != nil {
		return e.fail(fault.Adapter(fmt.Errorf("removing product[%s] from cart: %w", productID, err)))
	}

	// The server list is authoritative after a remote removal.
	if authed {
		e.scheduleReconcile(slug)
	}
	return nil
}

// ClearCart empties the bound website's cart in memory and in both
// storage backends. Clearing an already empty cart is a no-op, not an
// error.
func (e *Engine) ClearCart(ctx context.Context) error {
	e.setLoading(true)
	defer e.setLoading(false)

	e.mu.Lock()
	slug := e.state.Website.Slug
	e.state.Err = ""
	e.publishLocked(nil)
	e.mu.Unlock()

	if slug == "" {
		return nil
	}

	var errs []error
	if err := e.local.Clear(ctx, slug); err != nil {
		e.log.WithField("website", slug).WithError(err).Warn("clearing local cart")
		errs = append(errs, fmt.Errorf("local: %w", err))
	}
	if e.gate.IsAuthenticated() {
		if err := e.remote.Clear(ctx, slug); err != nil {
			e.log.WithField("website", slug).WithError(err).Warn("clearing remote cart")
			errs = append(errs, fmt.Errorf("remote: %w", err))
		}
	}
	if len(errs) > 0 {
		return e.fail(fault.Adapter(fmt.Errorf("clearing cart for website[%s]: %w", slug, errors.Join(errs...))))
	}
	return nil
}

// Reconcile replaces the item list with a fresh remote load unless a
// newer local mutation or a rebind happened while the load was in
// flight; in that case the fresher state wins and the load is dropped.
func (e *Engine) Reconcile(ctx context.Context) error {
	slug := e.websiteSlug()
	if slug == "" {
		return nil
	}

	gen := e.generation()

	v, err, _ := e.group.Do(slug, func() (interface{}, error) {
		loaded, err := e.remote.Load(ctx, slug)
		if err != nil {
			return nil, err
		}
		items := make([]Item, len(loaded))
		for i, it := range loaded {
			items[i] = Normalize(it)
		}
		return items, nil
	})
	if err != nil {
		return fmt.Errorf("reconciling cart for website[%s]: %w", slug, err)
	}

	// Do hands the same result to every joined caller; publish a
	// private copy.
	items := cloneItems(v.([]Item))

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen || e.state.Website.Slug != slug {
		return nil
	}
	e.publishLocked(items)
	return nil
}

// scheduleReconcile queues a debounced, per-website background
// reconcile. Failures are logged, never surfaced: the optimistic state
// is still the best view available.
func (e *Engine) scheduleReconcile(slug string) {
	if e.limiter.Allow(slug) {
		go e.runReconcile(slug)
		return
	}

	// Denied means a reload already ran this window. Arm one trailing
	// reload per website for the next slot; the mutation that lost the
	// race here may have invalidated the in-flight reload, so dropping
	// it outright could leave server state unfolded forever.
	e.pendMu.Lock()
	defer e.pendMu.Unlock()
	if e.closed {
		return
	}
	if _, armed := e.pending[slug]; armed {
		return
	}
	e.pending[slug] = time.AfterFunc(e.every, func() {
		e.pendMu.Lock()
		delete(e.pending, slug)
		e.pendMu.Unlock()
		e.limiter.Allow(slug)
		e.runReconcile(slug)
	})
}

func (e *Engine) runReconcile(slug string) {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	if err := e.Reconcile(ctx); err != nil {
		e.log.WithField("website", slug).WithError(err).Warn("cart reconcile failed")
	}
}

func (e *Engine) store() Store {
	if e.gate.IsAuthenticated() {
		return e.remote
	}
	return e.local
}

func (e *Engine) websiteSlug() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Website.Slug
}

func (e *Engine) generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// fail records err for passive observers and returns it.
func (e *Engine) fail(err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Err = fault.Message(err)
	e.notifyLocked()
	return err
}

func (e *Engine) setLoading(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Loading = v
	e.notifyLocked()
}

// publishLocked installs a new item list, recomputes the total, and
// bumps the mutation generation. Callers hold e.mu.
func (e *Engine) publishLocked(items []Item) {
	e.state.Items = items
	e.state.Total = Total(items)
	e.gen++
	e.notifyLocked()
}

func (e *Engine) notifyLocked() {
	if len(e.subs) == 0 {
		return
	}
	snap := e.snapshotLocked()
	for _, fn := range e.subs {
		fn(snap)
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := e.state
	snap.Items = cloneItems(e.state.Items)
	return snap
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func indexOf(items []Item, slug, productID string) int {
	for i, it := range items {
		if it.WebsiteSlug == slug && string(it.ProductID) == productID {
			return i
		}
	}
	return -1
}
