package reconcile

import (
	"context"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

type MockResolver struct {
	Creds map[string]domain.Credentials
}

func (m *MockResolver) Resolve(_ context.Context, tenantID string) (domain.Credentials, bool) {
	c, ok := m.Creds[tenantID]
	return c, ok
}

type MockOrderStore struct {
	Orders []*domain.Order
	Err    error
	Calls  int
	Email  string
}

func (m *MockOrderStore) ListOrdersByEmail(_ context.Context, _, email string) ([]*domain.Order, error) {
	m.Calls++
	m.Email = email
	return m.Orders, m.Err
}
