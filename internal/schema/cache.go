// Package schema caches entity definitions with a TTL so hot paths do
// not refetch the same schema on every call.
package schema

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
)

// DefaultTTL is how long a cached definition stays fresh.
const DefaultTTL = 5 * time.Minute

// Loader fetches a definition with its fields from the backing store.
type Loader interface {
	GetDefinition(ctx context.Context, definitionID string) (*model.Definition, error)
}

// Options configures a Cache.
type Options struct {
	// Disabled makes every read go to the loader; nothing is stored.
	Disabled bool

	// TTL overrides DefaultTTL when positive.
	TTL time.Duration
}

type entry struct {
	def       *model.Definition
	expiresAt time.Time
}

// Cache memoizes whole definitions keyed by definition id. Entries
// expire after the TTL; expired entries are refetched on demand.
type Cache struct {
	loader   Loader
	disabled bool
	ttl      time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	now func() time.Time
}

// New creates a Cache over the given loader.
func New(loader Loader, opts Options) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		loader:   loader,
		disabled: opts.Disabled,
		ttl:      ttl,
		entries:  map[string]entry{},
		now:      time.Now,
	}
}

// Definition returns the definition for id, from cache when fresh.
func (c *Cache) Definition(ctx context.Context, id string) (*model.Definition, error) {
	if c.disabled {
		return c.load(ctx, id)
	}

	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.def, nil
	}

	def, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[id] = entry{def: def, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return def, nil
}

// Fields returns the sorted field list of a definition.
func (c *Cache) Fields(ctx context.Context, id string) ([]*model.Field, error) {
	def, err := c.Definition(ctx, id)
	if err != nil {
		return nil, err
	}
	return def.Fields, nil
}

// Clear drops every cached entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]entry{}
	c.mu.Unlock()
}

func (c *Cache) load(ctx context.Context, id string) (*model.Definition, error) {
	def, err := c.loader.GetDefinition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load definition %s: %w", id, err)
	}
	return def, nil
}
