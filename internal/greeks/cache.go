package greeks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Provider fetches Greeks from the upstream market-data source. One call
// covers every requested contract on the same (symbol, expiration) pair.
type Provider interface {
	OptionGreeksBatch(ctx context.Context, symbol string, expiration time.Time, contracts []ContractRef) ([]Snapshot, error)
}

// SpotFunc resolves the underlying price for a symbol, reporting whether a
// price was available.
type SpotFunc func(ctx context.Context, symbol string) (float64, bool)

// Cache is a TTL-keyed store of per-contract Greeks. Reads and writes are
// atomic per key; a lookup never observes a partially written snapshot.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Snapshot

	ttl      time.Duration
	timeout  time.Duration
	provider Provider
	params   EstimatorParams
	logger   *zap.Logger

	now func() time.Time
}

func NewCache(provider Provider, ttl, fetchTimeout time.Duration, params EstimatorParams, logger *zap.Logger) *Cache {
	return &Cache{
		entries:  make(map[Key]Snapshot),
		ttl:      ttl,
		timeout:  fetchTimeout,
		provider: provider,
		params:   params,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the cached snapshot for a contract if present and fresh.
func (c *Cache) Get(ref ContractRef) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.entries[ref.Key()]
	if !ok || c.now().Sub(snap.FetchedAt) > c.ttl {
		return Snapshot{}, false
	}
	return snap, true
}

// Len returns the number of cached entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type refillGroup struct {
	symbol     string
	expiration time.Time
	refs       []ContractRef
}

// Resolve returns a snapshot for every requested contract. Fresh cache
// entries are served as-is; misses and stale entries are coalesced into one
// provider call per (symbol, expiration) pair. When the provider fails, each
// missing contract is estimated and the estimate is cached so the next pass
// does not repeat the failing call.
func (c *Cache) Resolve(ctx context.Context, refs []ContractRef, spot SpotFunc) map[Key]Snapshot {
	out := make(map[Key]Snapshot, len(refs))
	groups := make(map[string]*refillGroup)

	for _, ref := range refs {
		key := ref.Key()
		if _, done := out[key]; done {
			continue
		}
		if snap, ok := c.Get(ref); ok {
			out[key] = snap
			continue
		}
		gk := key.Symbol + "/" + key.Expiration
		g, ok := groups[gk]
		if !ok {
			g = &refillGroup{symbol: ref.Symbol, expiration: ref.Expiration}
			groups[gk] = g
		}
		g.refs = append(g.refs, ref)
		out[key] = Snapshot{} // placeholder, filled below
	}

	for _, g := range groups {
		c.refill(ctx, g, spot, out)
	}

	return out
}

func (c *Cache) refill(ctx context.Context, g *refillGroup, spot SpotFunc, out map[Key]Snapshot) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	snaps, err := c.provider.OptionGreeksBatch(fetchCtx, g.symbol, g.expiration, g.refs)
	if err == nil {
		now := c.now()
		c.mu.Lock()
		for _, snap := range snaps {
			snap.Source = SourceAPI
			snap.FetchedAt = now
			key := snap.Ref().Key()
			c.entries[key] = snap
			out[key] = snap
		}
		c.mu.Unlock()

		// Anything the provider did not return still needs a value.
		for _, ref := range g.refs {
			if out[ref.Key()].FetchedAt.IsZero() {
				c.estimateOne(ctx, ref, spot, out)
			}
		}
		return
	}

	c.logger.Warn("greeks fetch failed, falling back to estimates",
		zap.String("symbol", g.symbol),
		zap.Time("expiration", g.expiration),
		zap.Int("contracts", len(g.refs)),
		zap.Error(err),
	)

	for _, ref := range g.refs {
		c.estimateOne(ctx, ref, spot, out)
	}
}

func (c *Cache) estimateOne(ctx context.Context, ref ContractRef, spot SpotFunc, out map[Key]Snapshot) {
	key := ref.Key()

	// A stale API snapshot beats a fresh model estimate.
	c.mu.RLock()
	stale, hadStale := c.entries[key]
	c.mu.RUnlock()
	if hadStale && stale.Source == SourceAPI {
		out[key] = stale
		return
	}

	price, ok := spot(ctx, ref.Symbol)
	if !ok {
		// No price either; estimate at the strike so the contract still
		// contributes something sane to aggregation.
		price = ref.Strike
	}

	snap := Estimate(ref, price, c.params, c.now())
	c.mu.Lock()
	c.entries[key] = snap
	c.mu.Unlock()
	out[key] = snap
}
