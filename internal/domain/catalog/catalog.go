// Package catalog holds the product catalog cache: the most recently fetched
// set of products, read-only to the rest of the application.
package catalog

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID    int
	Title string
	Price decimal.Decimal
	Image string
}

// Source fetches the full product list from the remote catalog service.
type Source interface {
	Fetch(ctx context.Context) ([]Product, error)
}

// Cache holds the most recently fetched products. Replace swaps the whole
// set atomically; a failed fetch must leave the previous set untouched and
// record the failure via SetError instead.
type Cache struct {
	mu      sync.RWMutex
	byID    map[int]Product
	ordered []Product
	lastErr error
	loaded  bool
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{byID: make(map[int]Product)}
}

// Replace swaps the cached set for products and clears any recorded fetch
// error. There is no partial merge.
func (c *Cache) Replace(products []Product) {
	byID := make(map[int]Product, len(products))
	ordered := make([]Product, len(products))
	copy(ordered, products)
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = byID
	c.ordered = ordered
	c.lastErr = nil
	c.loaded = true
}

// SetError records a fetch failure. The cached set keeps its previous value.
func (c *Cache) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}

// LastError returns the most recent fetch failure, or nil after a
// successful Replace.
func (c *Cache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Loaded reports whether at least one Replace has happened.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Lookup returns the product with the given id, or ErrNotFound.
func (c *Cache) Lookup(id int) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Products returns a copy of the cached set in catalog order.
func (c *Cache) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of cached products.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ordered)
}
