package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// CacheOptions configures the read-through cache.
type CacheOptions struct {
	MaxCost int64         // total bytes held in the cache
	TTL     time.Duration // staleness bound for writes made behind the cache's back
}

// Cached is a read-through, write-through cache in front of another Store.
// A successful Save replaces the cached value; a failed Save evicts it. Values
// written to the backend by another process are visible after at most TTL.
type Cached struct {
	next  Store
	cache *ristretto.Cache[string, []byte]
	ttl   time.Duration

	// mu orders a backend read and its cache fill against concurrent saves so
	// a slow Load cannot repopulate the cache with a value older than a Save.
	mu sync.Mutex
}

// NewCached wraps next with a ristretto cache.
func NewCached(next Store, opts CacheOptions) (*Cached, error) {
	if opts.MaxCost <= 0 {
		opts.MaxCost = 32 << 20
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Minute
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1000,
		MaxCost:     opts.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Cached{next: next, cache: cache, ttl: opts.TTL}, nil
}

func (c *Cached) Load(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.cache.Get(key); ok {
		return clone(v), nil
	}
	v, err := c.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	c.fill(key, v)
	return v, nil
}

func (c *Cached) Save(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.next.Save(ctx, key, value); err != nil {
		c.cache.Del(key)
		return err
	}
	c.fill(key, value)
	return nil
}

func (c *Cached) SaveAll(ctx context.Context, entries []Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := SaveAll(ctx, c.next, entries...); err != nil {
		for _, e := range entries {
			c.cache.Del(e.Key)
		}
		return err
	}
	for _, e := range entries {
		c.fill(e.Key, e.Value)
	}
	return nil
}

// fill stores a private copy and waits for ristretto's buffered write to land,
// so a later Get never observes an older value that was still queued.
func (c *Cached) fill(key string, value []byte) {
	c.cache.Del(key)
	c.cache.SetWithTTL(key, clone(value), int64(len(value))+1, c.ttl)
	c.cache.Wait()
}

func (c *Cached) Close() error {
	c.cache.Close()
	return c.next.Close()
}
