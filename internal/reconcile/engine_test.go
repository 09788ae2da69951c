package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/gateway"
	"github.com/fjod/go_cart/storefront-payments/internal/gateway/gatewaytest"
	"github.com/fjod/go_cart/storefront-payments/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buyer = "buyer@example.com"

type engineFixture struct {
	gw     *gatewaytest.Fake
	orders *MockOrderStore
	engine *Engine
}

func newEngineFixture() *engineFixture {
	gw := gatewaytest.New()
	gw.Customers[buyer] = "cus_1"
	orders := &MockOrderStore{}
	creds := &MockResolver{Creds: map[string]domain.Credentials{"t1": {SecretKey: "sk_test_1", IsTestMode: true}}}
	return &engineFixture{
		gw:     gw,
		orders: orders,
		engine: NewEngine(creds, gw, orders, 0, logger.Nop()),
	}
}

func TestInvoices_NotConfigured(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.Invoices(context.Background(), "t2", buyer)

	assert.ErrorIs(t, err, domain.ErrIntegrationNotConfigured)
	assert.Empty(t, f.gw.Connected)
}

func TestInvoices_UnknownBuyerIsEmpty(t *testing.T) {
	f := newEngineFixture()

	got, err := f.engine.Invoices(context.Background(), "t1", "stranger@example.com")

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, f.orders.Calls)
}

func TestInvoices_ExactLinkThroughSession(t *testing.T) {
	f := newEngineFixture()
	f.gw.Invoices["cus_1"] = []gateway.Invoice{
		{ID: "in_1", Number: "A-1", PaymentRef: "pi_1", AmountPaid: 2320, Currency: "eur", Status: "paid", Created: base},
	}
	f.gw.CompletedSessions = []gateway.SessionInfo{
		{ID: "cs_1", PaymentRef: "pi_1", CustomerEmail: buyer, AmountTotal: 2320, Currency: "eur",
			PaymentStatus: "paid", Created: base, Metadata: map[string]string{domain.MetaOrderID: "o-exact"}},
	}
	// a fuzzy candidate that must lose to the exact link
	f.orders.Orders = []*domain.Order{
		order("o-fuzzy", 23.20, base),
		order("o-exact", 99.00, base.Add(-72*time.Hour)),
	}

	got, err := f.engine.Invoices(context.Background(), "t1", buyer)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "in_1", got[0].ExternalID)
	assert.Equal(t, domain.SourceInvoice, got[0].Source)
	assert.Equal(t, 23.20, got[0].Amount)
	assert.Equal(t, "o-exact", got[0].LinkedOrderID)
	assert.Equal(t, domain.MatchExact, got[0].MatchKind)
}

func TestInvoices_OrdersLookedUpByNormalizedEmail(t *testing.T) {
	f := newEngineFixture()
	f.gw.Customers["Buyer@Example.com"] = "cus_1"

	_, err := f.engine.Invoices(context.Background(), "t1", "Buyer@Example.com")

	require.NoError(t, err)
	assert.Equal(t, 1, f.orders.Calls)
	assert.Equal(t, buyer, f.orders.Email)
}

func TestInvoices_FuzzyFallback(t *testing.T) {
	f := newEngineFixture()
	f.gw.Invoices["cus_1"] = []gateway.Invoice{
		{ID: "in_1", PaymentRef: "pi_9", AmountPaid: 2320, Currency: "eur", Status: "paid", Created: base},
	}
	f.orders.Orders = []*domain.Order{order("o1", 23.20, base.Add(-3*time.Hour))}

	got, err := f.engine.Invoices(context.Background(), "t1", buyer)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].LinkedOrderID)
	assert.Equal(t, domain.MatchFuzzy, got[0].MatchKind)
}

func TestInvoices_SessionsBecomeSyntheticRecords(t *testing.T) {
	f := newEngineFixture()
	f.gw.Invoices["cus_1"] = []gateway.Invoice{
		{ID: "in_1", PaymentRef: "pi_1", AmountPaid: 1000, Currency: "eur", Status: "paid", Created: base.Add(-48 * time.Hour)},
	}
	f.gw.CompletedSessions = []gateway.SessionInfo{
		{ID: "cs_dup", PaymentRef: "pi_1", CustomerEmail: buyer, AmountTotal: 1000, Created: base.Add(-48 * time.Hour)},
		{ID: "cs_new", PaymentRef: "pi_2", CustomerEmail: "Buyer@Example.com", AmountTotal: 550, Currency: "eur",
			PaymentStatus: "paid", Created: base, Metadata: map[string]string{domain.MetaOrderID: "o2"}},
		{ID: "cs_other", PaymentRef: "pi_3", CustomerEmail: "someone@example.com", AmountTotal: 700, Created: base},
	}
	f.orders.Orders = []*domain.Order{order("o2", 5.50, base)}

	got, err := f.engine.Invoices(context.Background(), "t1", buyer)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cs_new", got[0].ExternalID)
	assert.Equal(t, domain.SourceCheckoutSession, got[0].Source)
	assert.Equal(t, "o2", got[0].LinkedOrderID)
	assert.Equal(t, domain.MatchExact, got[0].MatchKind)
	assert.Equal(t, "in_1", got[1].ExternalID)
	assert.Equal(t, domain.MatchNone, got[1].MatchKind)
}

func TestInvoices_SortedNewestFirst(t *testing.T) {
	f := newEngineFixture()
	f.gw.Invoices["cus_1"] = []gateway.Invoice{
		{ID: "old", Created: base.Add(-24 * time.Hour)},
		{ID: "new", Created: base.Add(24 * time.Hour)},
		{ID: "mid", Created: base},
	}

	got, err := f.engine.Invoices(context.Background(), "t1", buyer)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{got[0].ExternalID, got[1].ExternalID, got[2].ExternalID})
}

func TestInvoices_OneOrderLinksOnce(t *testing.T) {
	f := newEngineFixture()
	f.gw.Invoices["cus_1"] = []gateway.Invoice{
		{ID: "in_1", AmountPaid: 1000, Created: base},
		{ID: "in_2", AmountPaid: 1000, Created: base.Add(time.Hour)},
	}
	f.orders.Orders = []*domain.Order{order("o1", 10.00, base)}

	got, err := f.engine.Invoices(context.Background(), "t1", buyer)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "o1", got[0].LinkedOrderID)
	assert.Empty(t, got[1].LinkedOrderID)
}

func TestInvoices_InvoiceFailureIsFatal(t *testing.T) {
	f := newEngineFixture()
	f.gw.InvoicesErr = errors.New("provider outage")

	_, err := f.engine.Invoices(context.Background(), "t1", buyer)

	assert.Error(t, err)
}

func TestInvoices_SessionFailureDegrades(t *testing.T) {
	f := newEngineFixture()
	f.gw.Invoices["cus_1"] = []gateway.Invoice{{ID: "in_1", AmountPaid: 1000, Created: base}}
	f.gw.SessionsErr = errors.New("list failed")

	got, err := f.engine.Invoices(context.Background(), "t1", buyer)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "in_1", got[0].ExternalID)
}

func TestInvoices_OrderLoadFailure(t *testing.T) {
	f := newEngineFixture()
	f.orders.Err = errors.New("mongo down")

	_, err := f.engine.Invoices(context.Background(), "t1", buyer)

	assert.Error(t, err)
}

func TestInvoices_ScanLimitIsPassedToGateway(t *testing.T) {
	f := newEngineFixture()
	f.engine = NewEngine(&MockResolver{Creds: map[string]domain.Credentials{"t1": {SecretKey: "sk"}}}, f.gw, f.orders, 1, logger.Nop())
	f.gw.CompletedSessions = []gateway.SessionInfo{
		{ID: "cs_old", CustomerEmail: buyer, Created: base},
		{ID: "cs_new", CustomerEmail: buyer, Created: base.Add(time.Hour)},
	}

	got, err := f.engine.Invoices(context.Background(), "t1", buyer)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "cs_new", got[0].ExternalID)
}
