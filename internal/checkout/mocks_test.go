package checkout

import (
	"context"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

// MockResolver implements CredentialResolver for testing
type MockResolver struct {
	Creds map[string]domain.Credentials
}

func (m *MockResolver) Resolve(_ context.Context, tenantID string) (domain.Credentials, bool) {
	c, ok := m.Creds[tenantID]
	return c, ok
}

// MockProductStore implements ProductStore for testing
type MockProductStore struct {
	Products   map[string]*domain.Product
	GetErr     error
	SetErr     error
	Registered map[string]string
	Loads      int
}

func (m *MockProductStore) GetProducts(_ context.Context, _ string, ids []string) ([]*domain.Product, error) {
	m.Loads++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := m.Products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockProductStore) SetGatewayProductID(_ context.Context, _, productID, ref string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Registered == nil {
		m.Registered = map[string]string{}
	}
	m.Registered[productID] = ref
	return nil
}

// MockTenantStore implements TenantStore for testing
type MockTenantStore struct {
	Tenants map[string]*domain.Tenant
}

func (m *MockTenantStore) GetTenant(_ context.Context, tenantID string) (*domain.Tenant, error) {
	t, ok := m.Tenants[tenantID]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return t, nil
}

// MockCartStore implements CartStore for testing
type MockCartStore struct {
	Cart *domain.Cart
	Err  error
}

func (m *MockCartStore) GetCart(_ context.Context, _, _ string) (*domain.Cart, error) {
	return m.Cart, m.Err
}

// MockOrderStore implements OrderStore for testing
type MockOrderStore struct {
	Created []*domain.Order
	Err     error
}

func (m *MockOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.Err != nil {
		return m.Err
	}
	m.Created = append(m.Created, order)
	return nil
}
