// Package cache stores fetched price series for a bounded time so repeated
// analyses of the same ticker do not hit the market data provider.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockResearch/internal/model"
)

// Store is a TTL key-value store for price series.
type Store interface {
	Get(ctx context.Context, key string) (model.PriceSeries, bool, error)
	Set(ctx context.Context, key string, series model.PriceSeries, ttl time.Duration) error
	Close() error
}

// Key builds the cache key for a provider, symbol and period.
func Key(provider, symbol, period string) string {
	return fmt.Sprintf("stockresearch:bars:%s:%s:%s", provider, strings.ToUpper(symbol), period)
}

type entry struct {
	series  model.PriceSeries
	expires time.Time
}

// MemoryStore is an in-process Store. Expired entries are dropped lazily on Get.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	Now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), Now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (model.PriceSeries, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return model.PriceSeries{}, false, nil
	}
	if !s.Now().Before(e.expires) {
		delete(s.entries, key)
		return model.PriceSeries{}, false, nil
	}
	return e.series, true, nil
}

// Set stores a copy of series' bars. A non-positive ttl is a no-op.
func (s *MemoryStore) Set(_ context.Context, key string, series model.PriceSeries, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	series.Bars = append([]model.PriceBar(nil), series.Bars...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{series: series, expires: s.Now().Add(ttl)}
	return nil
}

// Len returns the number of entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }

// NoopStore never stores anything.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) (model.PriceSeries, bool, error) {
	return model.PriceSeries{}, false, nil
}
func (NoopStore) Set(context.Context, string, model.PriceSeries, time.Duration) error { return nil }
func (NoopStore) Close() error                                                        { return nil }
