package fuel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rubiojr/fuelbot/internal/cache"
	"github.com/rubiojr/fuelbot/pkg/tankerkoenig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeUpstream struct {
	mu         sync.Mutex
	stations   []tankerkoenig.Station
	quotes     map[string]tankerkoenig.PriceQuote
	listErr    error
	pricesErr  error
	listCalls  []tankerkoenig.Query
	priceCalls [][]string
	block      chan struct{}
}

func (f *fakeUpstream) List(ctx context.Context, q tankerkoenig.Query) (*tankerkoenig.ListResponse, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	resp := &tankerkoenig.ListResponse{Stations: append([]tankerkoenig.Station(nil), f.stations...)}
	resp.OK = true
	resp.License = "CC BY 4.0"
	return resp, nil
}

func (f *fakeUpstream) Prices(_ context.Context, ids []string) (*tankerkoenig.PricesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls = append(f.priceCalls, ids)
	if f.pricesErr != nil {
		return nil, f.pricesErr
	}
	resp := &tankerkoenig.PricesResponse{Prices: map[string]tankerkoenig.PriceQuote{}}
	resp.OK = true
	for _, id := range ids {
		if q, ok := f.quotes[id]; ok {
			resp.Prices[id] = q
		}
	}
	return resp, nil
}

func (f *fakeUpstream) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls), len(f.priceCalls)
}

type putCall struct {
	key   string
	value []byte
	ttl   time.Duration
}

// recordingStore wraps a memory store and records Put calls.
type recordingStore struct {
	cache.Store
	mu     sync.Mutex
	puts   []putCall
	getErr error
	putErr error
}

func (s *recordingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	return s.Store.Get(ctx, key)
}

func (s *recordingStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.puts = append(s.puts, putCall{key: key, value: value, ttl: ttl})
	s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	return s.Store.Put(ctx, key, value, ttl)
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: cache.NewMemory(newTestLogger())}
}

func sampleUpstream() *fakeUpstream {
	return &fakeUpstream{
		stations: []tankerkoenig.Station{
			{ID: "a1", Brand: "ARAL", Street: "Karlstraße", HouseNumber: "12", Lat: 48.401, Lng: 9.99},
			{ID: "b2", Brand: "JET", Street: "Blaubeurer Str.", HouseNumber: "5", Lat: 48.399, Lng: 9.96},
			{ID: "c3", Brand: "Shell", Street: "Neue Str.", HouseNumber: "1", Lat: 48.398, Lng: 9.97},
		},
		quotes: map[string]tankerkoenig.PriceQuote{
			"a1": {Status: "open", Prices: map[string]tankerkoenig.Price{"e10": tankerkoenig.NewPrice(1.729)}},
			"b2": {Status: "closed", Prices: map[string]tankerkoenig.Price{}},
		},
	}
}

func TestCacheKey(t *testing.T) {
	tests := []struct {
		name  string
		query tankerkoenig.Query
		want  string
	}{
		{"default query", DefaultQuery(), "lat=48.4&lng=10&rad=4&sort=price&type=e10"},
		{"shared location", LocationQuery(48.4012, 10.0013), "lat=48.401&lng=10.001&rad=4&sort=price&type=e10"},
		{"no normalization", LocationQuery(48.4, 10.0), "lat=48.400&lng=10.000&rad=4&sort=price&type=e10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CacheKey(tt.query))
		})
	}
}

func TestLookup_CacheMiss(t *testing.T) {
	up := sampleUpstream()
	store := newRecordingStore()
	agg := New(up, store, newTestLogger())

	res, err := agg.Lookup(context.Background(), DefaultQuery())
	require.NoError(t, err)

	require.Len(t, up.listCalls, 1)
	assert.Equal(t, tankerkoenig.Query{Lat: "48.4", Lng: "10", Radius: 4, Sort: "price", FuelType: "e10"}, up.listCalls[0])
	require.Len(t, up.priceCalls, 1)
	assert.Equal(t, []string{"a1", "b2", "c3"}, up.priceCalls[0])

	require.Len(t, store.puts, 1)
	assert.Equal(t, "lat=48.4&lng=10&rad=4&sort=price&type=e10", store.puts[0].key)
	assert.Equal(t, 120*time.Second, store.puts[0].ttl)

	require.Len(t, res.Stations, len(up.stations))
	for _, s := range res.Stations {
		q, ok := up.quotes[s.ID]
		if !ok {
			assert.Nil(t, s.FuelPrices, "station %s has no quote upstream", s.ID)
			continue
		}
		require.NotNil(t, s.FuelPrices)
		assert.Equal(t, q.Status, s.FuelPrices.Status)
	}
	assert.Equal(t, "CC BY 4.0", res.License)
}

func TestLookup_CacheHit(t *testing.T) {
	up := sampleUpstream()
	store := newRecordingStore()
	agg := New(up, store, newTestLogger())
	ctx := context.Background()

	first, err := agg.Lookup(ctx, DefaultQuery())
	require.NoError(t, err)
	second, err := agg.Lookup(ctx, DefaultQuery())
	require.NoError(t, err)

	lists, prices := up.calls()
	assert.Equal(t, 1, lists, "second lookup must be served from cache")
	assert.Equal(t, 1, prices)
	assert.Len(t, store.puts, 1)

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
	assert.Equal(t, string(store.puts[0].value), string(b2))
}

func TestLookup_DistinctKeys(t *testing.T) {
	up := sampleUpstream()
	agg := New(up, newRecordingStore(), newTestLogger())
	ctx := context.Background()

	_, err := agg.Lookup(ctx, LocationQuery(48.4, 10.0))
	require.NoError(t, err)
	_, err = agg.Lookup(ctx, DefaultQuery())
	require.NoError(t, err)

	lists, _ := up.calls()
	assert.Equal(t, 2, lists, "differently formatted queries are separate cache entries")
}

func TestLookup_NoStations(t *testing.T) {
	up := &fakeUpstream{}
	store := newRecordingStore()
	agg := New(up, store, newTestLogger())

	res, err := agg.Lookup(context.Background(), DefaultQuery())
	require.NoError(t, err)
	assert.Empty(t, res.Stations)

	_, prices := up.calls()
	assert.Equal(t, 0, prices, "prices must not be called with an empty id list")
	assert.Len(t, store.puts, 1)
}

func TestLookup_DuplicateStationIDs(t *testing.T) {
	up := sampleUpstream()
	up.stations = append(up.stations, up.stations[0])
	agg := New(up, newRecordingStore(), newTestLogger())

	res, err := agg.Lookup(context.Background(), DefaultQuery())
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "b2", "c3"}, up.priceCalls[0])
	assert.Len(t, res.Stations, 4)
	assert.NotNil(t, res.Stations[3].FuelPrices)
}

func TestLookup_StationListFails(t *testing.T) {
	up := sampleUpstream()
	up.listErr = &tankerkoenig.APIError{Method: "list", StatusCode: 503, Message: "maintenance"}
	store := newRecordingStore()
	agg := New(up, store, newTestLogger())

	res, err := agg.Lookup(context.Background(), DefaultQuery())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)

	var apiErr *tankerkoenig.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.ErrorContains(t, err, "maintenance")
	assert.Empty(t, store.puts, "failed lookups are not cached")
}

func TestLookup_PricesFail(t *testing.T) {
	up := sampleUpstream()
	up.pricesErr = errors.New("connection reset")
	store := newRecordingStore()
	agg := New(up, store, newTestLogger())

	_, err := agg.Lookup(context.Background(), DefaultQuery())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Empty(t, store.puts)
}

func TestLookup_CacheStoreFails(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		up := sampleUpstream()
		store := newRecordingStore()
		store.getErr = errors.New("disk I/O error")
		agg := New(up, store, newTestLogger())

		_, err := agg.Lookup(context.Background(), DefaultQuery())
		assert.ErrorIs(t, err, ErrCacheStore)
		lists, _ := up.calls()
		assert.Equal(t, 0, lists)
	})

	t.Run("put", func(t *testing.T) {
		store := newRecordingStore()
		store.putErr = errors.New("read-only")
		agg := New(sampleUpstream(), store, newTestLogger())

		res, err := agg.Lookup(context.Background(), DefaultQuery())
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrCacheStore)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		store := newRecordingStore()
		require.NoError(t, store.Store.Put(context.Background(), CacheKey(DefaultQuery()), []byte("{"), time.Minute))
		agg := New(sampleUpstream(), store, newTestLogger())

		_, err := agg.Lookup(context.Background(), DefaultQuery())
		assert.ErrorIs(t, err, ErrCacheStore)
	})
}

func TestLookup_ConcurrentMisses(t *testing.T) {
	const callers = 5

	run := func(t *testing.T, opts ...Option) int {
		up := sampleUpstream()
		up.block = make(chan struct{})
		agg := New(up, newRecordingStore(), newTestLogger(), opts...)

		var wg sync.WaitGroup
		var failures atomic.Int32
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := agg.Lookup(context.Background(), DefaultQuery()); err != nil {
					failures.Add(1)
				}
			}()
		}
		// Let every caller reach the upstream call before releasing it.
		time.Sleep(50 * time.Millisecond)
		close(up.block)
		wg.Wait()

		assert.Zero(t, failures.Load())
		lists, _ := up.calls()
		return lists
	}

	t.Run("independent", func(t *testing.T) {
		assert.Equal(t, callers, run(t))
	})

	t.Run("collapsed", func(t *testing.T) {
		assert.Equal(t, 1, run(t, WithCollapsedMisses()))
	})
}

func TestLookup_CollapsedMissOutlivesFirstCaller(t *testing.T) {
	up := sampleUpstream()
	up.block = make(chan struct{})
	agg := New(up, newRecordingStore(), newTestLogger(), WithCollapsedMisses())

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := agg.Lookup(firstCtx, DefaultQuery())
		firstErr <- err
	}()
	// The first caller owns the upstream fetch before the second one joins.
	time.Sleep(30 * time.Millisecond)

	type outcome struct {
		res *Result
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := agg.Lookup(context.Background(), DefaultQuery())
		second <- outcome{res, err}
	}()
	time.Sleep(30 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(up.block)
	got := <-second
	require.NoError(t, got.err)
	assert.Len(t, got.res.Stations, 3)

	lists, prices := up.calls()
	assert.Equal(t, 1, lists)
	assert.Equal(t, 1, prices)
}
