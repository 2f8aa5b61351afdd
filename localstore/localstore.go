// Package localstore persists guest carts as per-website blobs in an
// scs session store, the counterpart of the browser's cart_<slug>
// localStorage keys. It moves opaque records only; cart semantics stay
// in the engine.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/sirupsen/logrus"

	"github.com/sitebloom/storefront-client/core/cart"
)

// Guest carts outlive a browsing session but not forever.
const retention = 30 * 24 * time.Hour

type Store struct {
	sessions scs.Store
	log      logrus.FieldLogger

	// mu serializes read-modify-write of a blob; the session store is
	// safe on its own but a blob update is not atomic through it.
	// itemSites maps item IDs to the website blob holding them, since
	// Update and Remove address records by ID alone.
	mu        sync.Mutex
	itemSites map[string]string
}

func New(log logrus.FieldLogger) *Store {
	return WithSessions(memstore.New(), log)
}

// WithSessions runs the store on any scs backend, so an application
// with durable session storage can keep guest carts across restarts.
func WithSessions(sessions scs.Store, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{
		sessions:  sessions,
		log:       log,
		itemSites: map[string]string{},
	}
}

type blob struct {
	Items []cart.Item `json:"items"`
}

func key(slug string) string {
	return "cart_" + slug
}

func (s *Store) Load(_ context.Context, websiteSlug string) ([]cart.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bl := s.readLocked(websiteSlug)
	return bl.Items, nil
}

func (s *Store) Add(_ context.Context, item cart.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl := s.readLocked(item.WebsiteSlug)
	replaced := false
	for i, it := range bl.Items {
		if (item.ID != "" && it.ID == item.ID) || it.ProductID == item.ProductID {
			bl.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		bl.Items = append(bl.Items, item)
	}
	return s.writeLocked(item.WebsiteSlug, bl)
}

func (s *Store) Update(_ context.Context, itemID string, patch cart.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug, ok := s.itemSites[itemID]
	if !ok {
		return fmt.Errorf("item[%s] not found in any cart blob", itemID)
	}

	bl := s.readLocked(slug)
	for i, it := range bl.Items {
		if string(it.ID) == itemID {
			bl.Items[i].Quantity = patch.Quantity
			bl.Items[i].Price = patch.Price
			bl.Items[i].Name = patch.Name
			if patch.Images != nil {
				bl.Items[i].Images = patch.Images
			}
			return s.writeLocked(slug, bl)
		}
	}
	return fmt.Errorf("item[%s] not found in cart blob for website[%s]", itemID, slug)
}

func (s *Store) Remove(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug, ok := s.itemSites[itemID]
	if !ok {
		// Already gone; removal is idempotent.
		return nil
	}

	bl := s.readLocked(slug)
	items := bl.Items[:0]
	for _, it := range bl.Items {
		if string(it.ID) != itemID {
			items = append(items, it)
		}
	}
	bl.Items = items
	delete(s.itemSites, itemID)
	return s.writeLocked(slug, bl)
}

func (s *Store) Clear(_ context.Context, websiteSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, slug := range s.itemSites {
		if slug == websiteSlug {
			delete(s.itemSites, id)
		}
	}
	if err := s.sessions.Delete(key(websiteSlug)); err != nil {
		return fmt.Errorf("deleting cart blob for website[%s]: %w", websiteSlug, err)
	}
	return nil
}

// readLocked decodes the website's blob. A missing or unreadable blob
// is an empty cart: a corrupt cart starts over rather than wedging the
// storefront.
func (s *Store) readLocked(slug string) blob {
	b, found, err := s.sessions.Find(key(slug))
	if err != nil {
		s.log.WithField("website", slug).WithError(err).Warn("reading cart blob")
		return blob{}
	}
	if !found {
		return blob{}
	}

	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		s.log.WithField("website", slug).WithError(err).Warn("discarding corrupt cart blob")
		return blob{}
	}

	for _, it := range bl.Items {
		if it.ID != "" {
			s.itemSites[string(it.ID)] = slug
		}
	}
	return bl
}

func (s *Store) writeLocked(slug string, bl blob) error {
	for _, it := range bl.Items {
		if it.ID != "" {
			s.itemSites[string(it.ID)] = slug
		}
	}

	b, err := json.Marshal(bl)
	if err != nil {
		return fmt.Errorf("encoding cart blob for website[%s]: %w", slug, err)
	}
	if err := s.sessions.Commit(key(slug), b, time.Now().Add(retention)); err != nil {
		return fmt.Errorf("writing cart blob for website[%s]: %w", slug, err)
	}
	return nil
}
