// Package cache remembers clinic search results per filter set for the
// lifetime of one SDK session. Entries never expire; the whole cache is
// dropped after a clinic is created.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-directory/internal/model"
)

// Store holds encoded results. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context) ([]string, error)
	Flush(ctx context.Context) error
}

type Stats struct {
	Size   int      `json:"size"`
	Keys   []string `json:"keys"`
	Hits   int64    `json:"hits"`
	Misses int64    `json:"misses"`
}

type Cache struct {
	store  Store
	logger zerolog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New wraps store. A nil store falls back to an in-process one.
func New(store Store) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Cache{
		store:  store,
		logger: log.With().Str("component", "client_cache").Logger(),
	}
}

// Get returns the clinics stored under key. A store or decode failure is
// logged and reported as a miss, so callers fall through to the API.
func (c *Cache) Get(ctx context.Context, key string) ([]*model.Clinic, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	clinics := []*model.Clinic{}
	if err := json.Unmarshal(raw, &clinics); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry unreadable")
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return clinics, true
}

func (c *Cache) Put(ctx context.Context, key string, clinics []*model.Clinic) error {
	if clinics == nil {
		clinics = []*model.Clinic{}
	}
	raw, err := json.Marshal(clinics)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Stats reports the cached keys in sorted order. Hit and miss counters
// cover the whole session and survive Clear.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list cache keys: %w", err)
	}
	sort.Strings(keys)
	return Stats{
		Size:   len(keys),
		Keys:   keys,
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}, nil
}

func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Flush(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
