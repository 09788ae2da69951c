package webhook

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/journal"
)

type MockResolver struct {
	Creds    map[string]domain.Credentials
	Resolved []string
}

func (m *MockResolver) Resolve(_ context.Context, tenantID string) (domain.Credentials, bool) {
	m.Resolved = append(m.Resolved, tenantID)
	c, ok := m.Creds[tenantID]
	return c, ok
}

type MockCheckoutHandler struct {
	Err    error
	Panic  bool
	Events []domain.Event
}

func (m *MockCheckoutHandler) HandleCheckoutCompleted(_ context.Context, tenantID string, event domain.Event) error {
	if m.Panic {
		panic("nil map write")
	}
	m.Events = append(m.Events, event)
	return m.Err
}

type MockRecorder struct {
	mu      sync.Mutex
	Entries []journal.Entry
	Err     error
}

func (m *MockRecorder) Record(_ context.Context, e journal.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
	return m.Err
}
