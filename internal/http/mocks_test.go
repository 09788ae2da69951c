package http

import (
	"context"

	"github.com/fjod/go_cart/storefront-payments/internal/checkout"
	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/journal"
	"github.com/fjod/go_cart/storefront-payments/internal/webhook"
)

type MockStarter struct {
	Result *checkout.StartResult
	Err    error
	Got    checkout.StartRequest
}

func (m *MockStarter) Start(_ context.Context, req checkout.StartRequest) (*checkout.StartResult, error) {
	m.Got = req
	return m.Result, m.Err
}

type MockDispatcher struct {
	Result webhook.Result
	Got    domain.InboundEvent
	Calls  int
}

func (m *MockDispatcher) Handle(_ context.Context, in domain.InboundEvent) webhook.Result {
	m.Calls++
	m.Got = in
	return m.Result
}

type MockInvoiceLister struct {
	Records []domain.InvoiceRecord
	Err     error
	Tenant  string
	Email   string
}

func (m *MockInvoiceLister) Invoices(_ context.Context, tenantID, email string) ([]domain.InvoiceRecord, error) {
	m.Tenant, m.Email = tenantID, email
	return m.Records, m.Err
}

type MockEventReader struct {
	Entries []journal.Entry
	Err     error
	Limit   int
}

func (m *MockEventReader) Recent(_ context.Context, _ string, limit int) ([]journal.Entry, error) {
	m.Limit = limit
	return m.Entries, m.Err
}

type MockInvalidator struct {
	Tenants []string
	Err     error
}

func (m *MockInvalidator) Invalidate(_ context.Context, tenantID string) error {
	m.Tenants = append(m.Tenants, tenantID)
	return m.Err
}
