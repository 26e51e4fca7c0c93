package assist

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mktware/go-assist-backend/internal/domain"
)

// Cache tiers reported on hits.
const (
	TierDurable = "durable"
	TierMemory  = "memory"
)

// DurableCache is the durable-tier contract the cache store depends on.
// repo.GetCachedResponse / repo.PutCachedResponse satisfy it via a thin shim
// at wiring time.
type DurableCache interface {
	// Get returns the live entry for hash (incrementing its hit counter)
	// or an error when absent/expired.
	Get(ctx context.Context, hash string, now time.Time) (*domain.ResponseCache, error)
	// Put inserts or replaces the entry.
	Put(ctx context.Context, entry *domain.ResponseCache) error
}

// CachedResponse is a cache hit as seen by the pipeline.
type CachedResponse struct {
	Text      string
	Model     *string
	Tokens    *int
	ExpiresAt time.Time
	Tier      string // TierDurable or TierMemory
}

// memEntry is one memory-tier slot.
type memEntry struct {
	text      string
	model     *string
	tokens    *int
	expiresAt time.Time
}

// Cache is the two-tier response cache: a durable record-store tier and a
// process-local memory tier.
//
// Failure semantics are deliberate and load-bearing: every durable-tier
// error is logged and absorbed, degrading that request to memory-only
// caching. A database outage must never become a user-visible chat failure.
//
// The memory tier is a mutex-guarded map. All compound mutations (the
// sweep-then-insert on write) happen inside one critical section with no I/O,
// so concurrent requests cannot interleave mid-sweep.
type Cache struct {
	durable DurableCache // nil disables the durable tier
	limit   int          // memory entry count that triggers a sweep
	log     zerolog.Logger

	// now is a clock seam for tests.
	now func() time.Time

	mu  sync.Mutex
	mem map[string]memEntry
}

// NewCache constructs a Cache. durable may be nil (memory-only); limit
// values < 1 fall back to 1000.
func NewCache(durable DurableCache, limit int, log zerolog.Logger) *Cache {
	if limit < 1 {
		limit = 1000
	}
	return &Cache{
		durable: durable,
		limit:   limit,
		log:     log,
		now:     time.Now,
		mem:     make(map[string]memEntry),
	}
}

// Get looks key up in the durable tier first, then the memory tier. A
// durable hit is backfilled into memory with its remaining TTL so repeat
// queries stay off the database. A memory entry past its expiry is evicted
// and treated as a miss.
func (c *Cache) Get(ctx context.Context, key string) (*CachedResponse, bool) {
	now := c.now()

	if c.durable != nil {
		row, err := c.durable.Get(ctx, key, now)
		switch {
		case err == nil:
			c.mu.Lock()
			c.mem[key] = memEntry{
				text:      row.ResponseText,
				model:     row.ModelUsed,
				tokens:    row.TokensUsed,
				expiresAt: row.ExpiresAt,
			}
			c.mu.Unlock()
			return &CachedResponse{
				Text:      row.ResponseText,
				Model:     row.ModelUsed,
				Tokens:    row.TokensUsed,
				ExpiresAt: row.ExpiresAt,
				Tier:      TierDurable,
			}, true
		case ctx.Err() != nil:
			// Request is gone; don't bother with the memory tier either.
			return nil, false
		default:
			c.log.Debug().Err(err).Str("key", key).Msg("durable cache read miss or failure")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.mem[key]
	if !ok {
		return nil, false
	}
	if now.After(e.expiresAt) {
		delete(c.mem, key)
		return nil, false
	}
	return &CachedResponse{
		Text:      e.text,
		Model:     e.model,
		Tokens:    e.tokens,
		ExpiresAt: e.expiresAt,
		Tier:      TierMemory,
	}, true
}

// Put writes the response under key with the given TTL: best-effort to the
// durable tier (failures logged, never surfaced), always to the memory tier.
// When the insert pushes the memory tier past its size bound, expired
// entries are swept; live entries are never evicted.
func (c *Cache) Put(ctx context.Context, key, queryText, responseText string, model *string, tokens *int, ttl time.Duration) {
	now := c.now()
	expires := now.Add(ttl)

	if c.durable != nil {
		row := &domain.ResponseCache{
			QueryHash:    key,
			QueryText:    queryText,
			ResponseText: responseText,
			ModelUsed:    model,
			TokensUsed:   tokens,
			ExpiresAt:    expires,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := c.durable.Put(ctx, row); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("durable cache write failed; memory tier only")
		}
	}

	c.mu.Lock()
	c.mem[key] = memEntry{text: responseText, model: model, tokens: tokens, expiresAt: expires}
	if len(c.mem) > c.limit {
		for k, e := range c.mem {
			if !e.expiresAt.After(now) {
				delete(c.mem, k)
			}
		}
	}
	c.mu.Unlock()
}

// MemoryLen returns the memory-tier entry count (tests and ops).
func (c *Cache) MemoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mem)
}
