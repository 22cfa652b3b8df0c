package cache

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"StockResearch/internal/errors"
	"StockResearch/internal/model"
)

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps JSON-encoded series in Redis with a key expiry.
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(errors.ErrCodeCacheFailed, err, "redis ping %s", cfg.Addr)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (model.PriceSeries, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return model.PriceSeries{}, false, nil
	}
	if err != nil {
		return model.PriceSeries{}, false, errors.Wrap(errors.ErrCodeCacheFailed, "redis get", err)
	}
	var series model.PriceSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return model.PriceSeries{}, false, errors.Wrap(errors.ErrCodeCacheFailed, "decode cached series", err)
	}
	return series, true, nil
}

// Set stores series under key. A non-positive ttl is a no-op.
func (s *RedisStore) Set(ctx context.Context, key string, series model.PriceSeries, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(series)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCacheFailed, "encode series", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCacheFailed, "redis set", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
