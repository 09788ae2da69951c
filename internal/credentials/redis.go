package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/redis/go-redis/v9"
)

// NewRedisCache returns a cache whose entries live for ttl plus up to a minute of jitter,
// so entries written together do not expire together.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, tenantID string) (*domain.PaymentConfig, error) {
	data, err := r.client.Get(ctx, cacheKey(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cfg domain.PaymentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal payment config failed: %w", err)
	}
	return &cfg, nil
}

func (r *RedisCache) Set(ctx context.Context, tenantID string, cfg *domain.PaymentConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal payment config failed: %w", err)
	}

	jitter := time.Duration(rand.Int63n(int64(time.Minute)))
	if err := r.client.Set(ctx, cacheKey(tenantID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, tenantID string) error {
	if err := r.client.Del(ctx, cacheKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(tenantID string) string {
	return fmt.Sprintf("tenant:%s:payment", tenantID)
}
