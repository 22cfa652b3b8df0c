package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"StockResearch/internal/cache"
	"StockResearch/internal/logger"
	"StockResearch/internal/metrics"
	"StockResearch/internal/model"
)

// CachedFetcher serves repeated requests from a cache.Store for TTL.
// Cache failures are logged and fall through to the wrapped fetcher.
type CachedFetcher struct {
	Fetcher Fetcher
	Store   cache.Store
	TTL     time.Duration
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// NewCachedFetcher wraps f with store.
func NewCachedFetcher(f Fetcher, store cache.Store, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *CachedFetcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &CachedFetcher{Fetcher: f, Store: store, TTL: ttl, Logger: log, Metrics: m}
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() }

func (c *CachedFetcher) FetchDaily(ctx context.Context, symbol string, period Period) (model.PriceSeries, error) {
	symbol = NormalizeSymbol(symbol)
	key := cache.Key(c.Fetcher.Name(), symbol, string(period))

	series, ok, err := c.Store.Get(ctx, key)
	switch {
	case err != nil:
		c.Metrics.ObserveCache("error")
		c.Logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	case ok:
		c.Metrics.ObserveCache("hit")
		return series, nil
	default:
		c.Metrics.ObserveCache("miss")
	}

	series, err = c.Fetcher.FetchDaily(ctx, symbol, period)
	if err != nil {
		return model.PriceSeries{}, err
	}
	if err := c.Store.Set(ctx, key, series, c.TTL); err != nil {
		c.Logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return series, nil
}
