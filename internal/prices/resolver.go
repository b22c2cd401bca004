// Package prices resolves historical and current asset prices, consulting the
// on-disk price cache before the remote price API.
package prices

import (
	"context"
	"time"

	"ocean_tracker/internal/metrics"
	"ocean_tracker/internal/pricecache"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Fetcher retrieves a single price from a remote source.
type Fetcher interface {
	FetchPrice(ctx context.Context, ts time.Time) (float64, error)
}

// CallCounter is implemented by fetchers that count their remote calls.
type CallCounter interface {
	GetAPICallCount() int64
	ResetAPICallCount()
}

// Resolver answers price lookups for report rows. Failures are reported as
// "not available" (ok == false) and never abort the caller.
type Resolver struct {
	cache   *pricecache.Cache
	fetcher Fetcher
	limiter *rate.Limiter
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewResolver builds a resolver that keeps remote calls at least pace apart.
// The first call of a run, including the very first, also waits a full pace.
func NewResolver(cache *pricecache.Cache, fetcher Fetcher, pace time.Duration, m *metrics.Metrics) *Resolver {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if pace > 0 {
		limiter = rate.NewLimiter(rate.Every(pace), 1)
	}
	r := &Resolver{
		cache:   cache,
		fetcher: fetcher,
		limiter: limiter,
		metrics: m,
		now:     time.Now,
	}
	r.StartRun()
	return r
}

// StartRun marks the beginning of a tracker run. It drains any pacing token
// saved up while idle, so the run's first remote call waits too, and resets
// the fetcher's call counter.
func (r *Resolver) StartRun() {
	r.limiter.Allow()
	if c, ok := r.fetcher.(CallCounter); ok {
		c.ResetAPICallCount()
	}
}

// APICalls returns the remote calls made since the last StartRun, or 0 when
// the fetcher does not count them.
func (r *Resolver) APICalls() int64 {
	if c, ok := r.fetcher.(CallCounter); ok {
		return c.GetAPICallCount()
	}
	return 0
}

// Historical returns the price at ts, from the cache when present.
// New prices are written through to the cache file.
func (r *Resolver) Historical(ctx context.Context, ts time.Time) (float64, bool) {
	key := pricecache.Key(ts)
	if price, ok := r.cache.Get(key); ok {
		r.metrics.PriceLookup(metrics.LookupHit)
		log.Debug().Str("key", key).Float64("price", price).Msg("Price cache hit")
		return price, true
	}

	price, ok := r.fetch(ctx, ts)
	if !ok {
		r.metrics.PriceLookup(metrics.LookupError)
		return 0, false
	}
	r.metrics.PriceLookup(metrics.LookupMiss)

	if err := r.cache.Put(key, price); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to persist fetched price")
	}
	return price, true
}

// Current returns the price right now. It is not cached because a wall-clock
// key would never be looked up again.
func (r *Resolver) Current(ctx context.Context) (float64, bool) {
	return r.fetch(ctx, r.now())
}

func (r *Resolver) fetch(ctx context.Context, ts time.Time) (float64, bool) {
	if err := r.limiter.Wait(ctx); err != nil {
		log.Warn().Err(err).Time("ts", ts).Msg("Price lookup cancelled")
		return 0, false
	}

	price, err := r.fetcher.FetchPrice(ctx, ts)
	if err != nil {
		log.Warn().Err(err).Time("ts", ts).Msg("Failed to fetch price")
		return 0, false
	}
	return price, true
}
