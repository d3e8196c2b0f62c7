package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/util"
)

// Observer receives provider call outcomes. metrics.Registry implements it.
type Observer interface {
	EmbeddingDone(d time.Duration, err error)
	CacheHit()
}

type nopObserver struct{}

func (nopObserver) EmbeddingDone(time.Duration, error) {}
func (nopObserver) CacheHit()                          {}

// Cache de-duplicates provider calls for one run. Entries are written once
// and never replaced; a failed lookup is stored as nil so the provider is
// asked at most once per distinct text. Concurrent requests for the same
// text share one provider call.
type Cache struct {
	provider Provider
	timeout  time.Duration
	observer Observer
	logger   zerolog.Logger

	mu      sync.RWMutex
	entries map[string][]float64
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCache(provider Provider, timeout time.Duration, logger zerolog.Logger, observer Observer) *Cache {
	if observer == nil {
		observer = nopObserver{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Cache{
		provider: provider,
		timeout:  timeout,
		observer: observer,
		logger:   logger.With().Str("component", "embedding-cache").Logger(),
		entries:  map[string][]float64{},
	}
}

// Get returns the vector for text and whether one exists. Blank text is
// never sent to the provider.
func (c *Cache) Get(ctx context.Context, text string) ([]float64, bool) {
	if util.EmbeddingInput(text) == "" {
		return nil, false
	}
	key := util.EmbeddingKey(text)

	if vec, ok := c.lookup(key); ok {
		c.hits.Add(1)
		c.observer.CacheHit()
		return vec, len(vec) > 0
	}

	res, _, _ := c.group.Do(key, func() (any, error) {
		if vec, ok := c.lookup(key); ok {
			return vec, nil
		}
		c.misses.Add(1)

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		start := time.Now()
		vec, err := c.provider.Embed(callCtx, text)
		c.observer.EmbeddingDone(time.Since(start), err)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn().Err(err).Str("text", util.Truncate(text, 80)).Msg("embedding failed")
			vec = nil
		}

		c.mu.Lock()
		if existing, ok := c.entries[key]; ok {
			vec = existing
		} else {
			c.entries[key] = vec
		}
		c.mu.Unlock()
		return vec, nil
	})

	vec, _ := res.([]float64)
	return vec, len(vec) > 0
}

func (c *Cache) lookup(key string) ([]float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.entries[key]
	return vec, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Hits() int64   { return c.hits.Load() }
func (c *Cache) Misses() int64 { return c.misses.Load() }
