package sink

import (
	"context"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/segmentio/kafka-go"
)

type MockWriter struct {
	Messages []kafka.Message
	Err      error
	Closed   bool
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockWriter) Close() error {
	m.Closed = true
	return nil
}

type MockTenantStore struct {
	Tenants map[string]*domain.Tenant
	Calls   int
}

func (m *MockTenantStore) GetTenant(_ context.Context, tenantID string) (*domain.Tenant, error) {
	m.Calls++
	t, ok := m.Tenants[tenantID]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return t, nil
}
