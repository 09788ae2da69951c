package fulfillment

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

// MockOrderStore keeps orders in memory and applies MarkPaid conditionally,
// like the document store does.
type MockOrderStore struct {
	mu        sync.Mutex
	Orders    map[string]*domain.Order
	MarkErr   error
	MarkCalls int
}

func (m *MockOrderStore) GetOrder(_ context.Context, tenantID, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockOrderStore) MarkPaid(_ context.Context, tenantID, orderID string, payment domain.Payment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkCalls++
	if m.MarkErr != nil {
		return false, m.MarkErr
	}
	o, ok := m.Orders[orderID]
	if !ok || o.TenantID != tenantID || o.PaymentStatus != domain.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = domain.PaymentStatusCompleted
	if o.Status == domain.OrderStatusPending {
		o.Status = domain.OrderStatusProcessing
	}
	paidAt := payment.PaidAt
	o.PaidAt = &paidAt
	o.GatewayChargeID = payment.ChargeID
	return true, nil
}

func (m *MockOrderStore) SetFulfillmentRef(_ context.Context, _, orderID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Orders[orderID].FulfillmentRef = ref
	return nil
}

func (m *MockOrderStore) get(id string) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.Orders[id]
}

type MockTenantStore struct {
	Tenant *domain.Tenant
}

func (m *MockTenantStore) GetTenant(_ context.Context, _ string) (*domain.Tenant, error) {
	if m.Tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	return m.Tenant, nil
}

type MockSessionSource struct {
	Metadata map[string]string
	Err      error
	Calls    int
}

func (m *MockSessionSource) SessionMetadata(_ context.Context, _, _ string) (map[string]string, error) {
	m.Calls++
	return m.Metadata, m.Err
}

type MockSink struct {
	Enroll    bool
	EnrollErr error
	Result    PushResult
	PushErr   error
	Pushed    []*domain.Order
}

func (m *MockSink) Enrolled(_ context.Context, _ string) (bool, error) {
	return m.Enroll, m.EnrollErr
}

func (m *MockSink) PushOrder(_ context.Context, _ string, order *domain.Order) (PushResult, error) {
	m.Pushed = append(m.Pushed, order)
	return m.Result, m.PushErr
}

type MockNotifier struct {
	Sent  []domain.Message
	Err   error
	Panic bool
}

func (m *MockNotifier) Send(_ context.Context, msg domain.Message) error {
	if m.Panic {
		panic("template missing")
	}
	m.Sent = append(m.Sent, msg)
	return m.Err
}

type MockOrderEvents struct {
	Published []*domain.Order
	Err       error
}

func (m *MockOrderEvents) PublishOrderPaid(_ context.Context, order *domain.Order) error {
	m.Published = append(m.Published, order)
	return m.Err
}

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
