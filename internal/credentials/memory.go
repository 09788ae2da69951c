package credentials

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

// MemoryCache is a process-local Cache used when no redis is configured.
// Expired entries are evicted by a background loop until Close is called.
type MemoryCache struct {
	items *ttlcache.Cache[string, domain.PaymentConfig]
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	items := ttlcache.New[string, domain.PaymentConfig](
		ttlcache.WithTTL[string, domain.PaymentConfig](ttl),
		ttlcache.WithDisableTouchOnHit[string, domain.PaymentConfig](),
	)
	go items.Start()
	return &MemoryCache{items: items}
}

func (m *MemoryCache) Get(_ context.Context, tenantID string) (*domain.PaymentConfig, error) {
	item := m.items.Get(tenantID)
	if item == nil || item.IsExpired() {
		return nil, ErrCacheMiss
	}
	cfg := item.Value()
	return &cfg, nil
}

func (m *MemoryCache) Set(_ context.Context, tenantID string, cfg *domain.PaymentConfig) error {
	m.items.Set(tenantID, *cfg, ttlcache.DefaultTTL)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, tenantID string) error {
	m.items.Delete(tenantID)
	return nil
}

func (m *MemoryCache) Len() int {
	return m.items.Len()
}

func (m *MemoryCache) Close() error {
	m.items.Stop()
	return nil
}
