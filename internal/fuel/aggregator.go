package fuel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rubiojr/fuelbot/internal/cache"
	"github.com/rubiojr/fuelbot/pkg/tankerkoenig"
	"golang.org/x/sync/singleflight"
)

// CacheTTL is how long an aggregated result stays readable.
const CacheTTL = 120 * time.Second

// Upstream is the subset of the Tankerkönig client used by the Aggregator.
type Upstream interface {
	List(ctx context.Context, q tankerkoenig.Query) (*tankerkoenig.ListResponse, error)
	Prices(ctx context.Context, ids []string) (*tankerkoenig.PricesResponse, error)
}

// Aggregator answers queries from the cache and falls back to the upstream
// API on a miss. Concurrent misses for the same key each fetch and write the
// cache unless WithCollapsedMisses is set.
type Aggregator struct {
	upstream Upstream
	store    cache.Store
	log      *slog.Logger
	group    *singleflight.Group
}

type Option func(*Aggregator)

// WithCollapsedMisses makes concurrent misses for one key share a single
// upstream fetch.
func WithCollapsedMisses() Option {
	return func(a *Aggregator) { a.group = &singleflight.Group{} }
}

func New(upstream Upstream, store cache.Store, logger *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{upstream: upstream, store: store, log: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lookup returns the stations and prices for q.
func (a *Aggregator) Lookup(ctx context.Context, q tankerkoenig.Query) (*Result, error) {
	key := CacheKey(q)

	cached, found, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrCacheStore, key, err)
	}
	if found {
		var res Result
		if err := json.Unmarshal(cached, &res); err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %w", ErrCacheStore, key, err)
		}
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		a.log.Debug("Using cached data", "key", key)
		return &res, nil
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()
	a.log.Debug("Fetching data from upstream, cached data not found", "key", key)

	if a.group == nil {
		return a.fetch(ctx, q, key)
	}

	// The shared fetch outlives any single caller; each caller only stops
	// waiting when its own context ends.
	ch := a.group.DoChan(key, func() (any, error) {
		return a.fetch(context.WithoutCancel(ctx), q, key)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s: %w", key, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			a.log.Debug("Shared upstream fetch", "key", key)
		}
		return r.Val.(*Result), nil
	}
}

func (a *Aggregator) fetch(ctx context.Context, q tankerkoenig.Query, key string) (*Result, error) {
	start := time.Now()

	list, err := a.upstream.List(ctx, q)
	observeUpstream("list", err)
	if err != nil {
		return nil, fmt.Errorf("%w: listing stations: %w", ErrUpstream, err)
	}

	ids := stationIDs(list.Stations)
	quotes := map[string]tankerkoenig.PriceQuote{}
	if len(ids) > 0 {
		prices, err := a.upstream.Prices(ctx, ids)
		observeUpstream("prices", err)
		if err != nil {
			return nil, fmt.Errorf("%w: fetching prices: %w", ErrUpstream, err)
		}
		quotes = prices.Prices
	}

	res := merge(list, quotes)

	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("error marshaling result: %w", err)
	}
	if err := a.store.Put(ctx, key, data, CacheTTL); err != nil {
		return nil, fmt.Errorf("%w: put %s: %w", ErrCacheStore, key, err)
	}

	a.log.Debug("Fetched stations", "key", key, "stations", len(res.Stations), "quotes", len(quotes), "dur", time.Since(start))
	return res, nil
}

// stationIDs returns the ids of stations in order, without duplicates.
func stationIDs(stations []tankerkoenig.Station) []string {
	seen := make(map[string]struct{}, len(stations))
	ids := make([]string, 0, len(stations))
	for _, s := range stations {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		ids = append(ids, s.ID)
	}
	return ids
}

func merge(list *tankerkoenig.ListResponse, quotes map[string]tankerkoenig.PriceQuote) *Result {
	res := &Result{
		Stations: make([]Station, len(list.Stations)),
		License:  list.License,
	}
	for i, s := range list.Stations {
		res.Stations[i] = Station{Station: s}
		if q, ok := quotes[s.ID]; ok {
			res.Stations[i].FuelPrices = &q
		}
	}
	return res
}
