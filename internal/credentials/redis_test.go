package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cleanup := func() {
		client.Close()
		mr.Close()
	}
	return NewRedisCache(client, 10*time.Minute), mr, cleanup
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	cfg := &domain.PaymentConfig{Environment: domain.EnvironmentLive, LiveSecretKey: "sk_live", IsConfigured: true}
	require.NoError(t, cache.Set(ctx, "t1", cfg))

	got, err := cache.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	got, err := cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisCache_TTLWithJitter(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, cache.Set(context.Background(), "t1", &domain.PaymentConfig{}))

	ttl := mr.TTL(cacheKey("t1"))
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.Less(t, ttl, 11*time.Minute)
}

func TestRedisCache_Expired(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "t1", &domain.PaymentConfig{}))
	mr.FastForward(12 * time.Minute)

	_, err := cache.Get(ctx, "t1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(cacheKey("t1"), "{not json"))

	_, err := cache.Get(context.Background(), "t1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "t1", &domain.PaymentConfig{}))
	require.NoError(t, cache.Delete(ctx, "t1"))
	assert.False(t, mr.Exists(cacheKey("t1")))
}
