package collector

import (
	"StockResearch/internal/cache"
	"StockResearch/internal/config"
	"StockResearch/internal/errors"
	"StockResearch/internal/logger"
	"StockResearch/internal/metrics"
)

// NewFetcher builds the configured provider, wrapped with store when the
// cache is enabled.
func NewFetcher(cfg *config.Config, store cache.Store, log *logger.Logger, m *metrics.Metrics) (Fetcher, error) {
	var f Fetcher
	switch cfg.Provider.Name {
	case "yahoo", "":
		f = NewYahooFetcher(cfg.Provider.YahooBaseURL, cfg.Proxy, cfg.Provider.Timeout)
	case "polygon":
		pf, err := NewPolygonFetcher(cfg.Provider.PolygonAPIKey)
		if err != nil {
			return nil, err
		}
		f = pf
	case "binance":
		f = NewBinanceFetcher()
	case "mock":
		f = NewMockFetcher()
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unknown provider %q", cfg.Provider.Name)
	}
	if store == nil || cfg.Cache.Backend == "none" || cfg.Cache.TTL <= 0 {
		return f, nil
	}
	return NewCachedFetcher(f, store, cfg.Cache.TTL, log, m), nil
}

// NewStore builds the configured cache backend.
func NewStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	case "none":
		return cache.NoopStore{}, nil
	default:
		return cache.NewMemoryStore(), nil
	}
}
