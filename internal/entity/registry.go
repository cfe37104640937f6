package entity

import (
	"context"
	"sync"

	"github.com/IgorChugurov/public-api-sdk/internal/store"
)

// Registry hands out one shared Client per Config. Configs are
// comparable values, so equal configs always map to the same client
// and its schema cache.
type Registry struct {
	mu      sync.Mutex
	store   store.Store
	opts    []Option
	clients map[Config]*Client
}

// NewRegistry creates a registry whose clients share the given store
// and options.
func NewRegistry(st store.Store, opts ...Option) *Registry {
	return &Registry{
		store:   st,
		opts:    opts,
		clients: map[Config]*Client{},
	}
}

// Client returns the client for cfg, creating it on first use.
func (r *Registry) Client(cfg Config) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[cfg]; ok {
		return c
	}
	c := NewClient(r.store, cfg, r.opts...)
	r.clients[cfg] = c
	return c
}

// ClearSchemaCaches drops the cached schemas of every client.
func (r *Registry) ClearSchemaCaches(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		c.ClearSchemaCache(ctx)
	}
}
