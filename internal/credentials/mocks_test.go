package credentials

import (
	"context"
	"sync/atomic"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

type MockTenantStore struct {
	tenants map[string]*domain.Tenant
	err     error
	calls   atomic.Int32
	block   chan struct{}
}

func (m *MockTenantStore) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	m.calls.Add(1)
	if m.block != nil {
		<-m.block
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tenants[tenantID]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return t, nil
}

type MockCache struct {
	getErr error
	setErr error
	stored map[string]*domain.PaymentConfig
}

func (m *MockCache) Get(ctx context.Context, tenantID string) (*domain.PaymentConfig, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	cfg, ok := m.stored[tenantID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return cfg, nil
}

func (m *MockCache) Set(ctx context.Context, tenantID string, cfg *domain.PaymentConfig) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.stored == nil {
		m.stored = map[string]*domain.PaymentConfig{}
	}
	m.stored[tenantID] = cfg
	return nil
}

func (m *MockCache) Delete(ctx context.Context, tenantID string) error {
	delete(m.stored, tenantID)
	return nil
}
