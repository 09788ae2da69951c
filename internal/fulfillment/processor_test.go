package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFixture struct {
	orders    *MockOrderStore
	sessions  *MockSessionSource
	sink      *MockSink
	notifier  *MockNotifier
	events    *MockOrderEvents
	processor *Processor
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		orders: &MockOrderStore{Orders: map[string]*domain.Order{
			"o1": {
				ID: "o1", TenantID: "t1", Email: "buyer@example.com",
				Items:          []domain.OrderItem{{ProductID: "p1", ProductName: "Mug", Quantity: 2, Price: 10}},
				DeliveryMethod: domain.DeliveryStandard,
				Subtotal:       20, ShippingCost: 3.20, Total: 23.20, Currency: "eur",
				Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending,
			},
		}},
		sessions: &MockSessionSource{},
		sink:     &MockSink{},
		notifier: &MockNotifier{},
		events:   &MockOrderEvents{},
	}
	tenants := &MockTenantStore{Tenant: &domain.Tenant{ID: "t1", Name: "Shop", SenderEmail: "shop@example.com", SenderName: "Shop"}}
	f.processor = NewProcessor(f.orders, tenants, f.sessions, f.sink, f.notifier, f.events, logger.Nop())
	f.processor.now = func() time.Time { return fixedNow }
	return f
}

func completedEvent(orderID string) domain.Event {
	return domain.Event{
		ID:         "evt_1",
		Type:       domain.EventCheckoutCompleted,
		TenantID:   "t1",
		ObjectID:   "cs_test_1",
		PaymentRef: "pi_1",
		Metadata:   map[string]string{domain.MetaTenantID: "t1", domain.MetaOrderID: orderID},
	}
}

func TestHandleCheckoutCompleted_MarksPaid(t *testing.T) {
	f := newProcessorFixture()

	require.NoError(t, f.processor.HandleCheckoutCompleted(context.Background(), "t1", completedEvent("o1")))

	order := f.orders.get("o1")
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, "pi_1", order.GatewayChargeID)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, fixedNow, *order.PaidAt)

	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, "buyer@example.com", f.notifier.Sent[0].Recipient)
	require.Len(t, f.events.Published, 1)
	assert.Equal(t, domain.OrderStatusProcessing, f.events.Published[0].Status)
}

func TestHandleCheckoutCompleted_RedeliveryIsIdempotent(t *testing.T) {
	f := newProcessorFixture()
	ctx := context.Background()

	require.NoError(t, f.processor.HandleCheckoutCompleted(ctx, "t1", completedEvent("o1")))
	first := f.orders.get("o1")
	require.NoError(t, f.processor.HandleCheckoutCompleted(ctx, "t1", completedEvent("o1")))
	second := f.orders.get("o1")

	assert.Equal(t, first, second)
	assert.Equal(t, domain.OrderStatusProcessing, second.Status)
	assert.Equal(t, domain.PaymentStatusCompleted, second.PaymentStatus)
	assert.Len(t, f.notifier.Sent, 1)
	assert.Len(t, f.events.Published, 1)
	assert.Equal(t, 2, f.orders.MarkCalls)
}

func TestHandleCheckoutCompleted_SideEffectFailuresAreIsolated(t *testing.T) {
	f := newProcessorFixture()
	f.sink.Enroll = true
	f.sink.PushErr = errors.New("warehouse down")
	f.notifier.Panic = true
	f.events.Err = errors.New("kafka down")

	err := f.processor.HandleCheckoutCompleted(context.Background(), "t1", completedEvent("o1"))

	require.NoError(t, err)
	order := f.orders.get("o1")
	assert.Equal(t, domain.PaymentStatusCompleted, order.PaymentStatus)
	assert.Len(t, f.sink.Pushed, 1)
	assert.Len(t, f.events.Published, 1)
}

func TestHandleCheckoutCompleted_StoresFulfillmentReference(t *testing.T) {
	f := newProcessorFixture()
	f.sink.Enroll = true
	f.sink.Result = PushResult{Success: true, ExternalReference: "WH-1001"}

	require.NoError(t, f.processor.HandleCheckoutCompleted(context.Background(), "t1", completedEvent("o1")))

	assert.Equal(t, "WH-1001", f.orders.get("o1").FulfillmentRef)
	assert.Equal(t, "WH-1001", f.events.Published[0].FulfillmentRef)
}

func TestHandleCheckoutCompleted_NotEnrolledSkipsPush(t *testing.T) {
	f := newProcessorFixture()

	require.NoError(t, f.processor.HandleCheckoutCompleted(context.Background(), "t1", completedEvent("o1")))
	assert.Empty(t, f.sink.Pushed)
}

func TestHandleCheckoutCompleted_RefetchesTrimmedMetadata(t *testing.T) {
	f := newProcessorFixture()
	f.sessions.Metadata = map[string]string{domain.MetaTenantID: "t1", domain.MetaOrderID: "o1"}
	ev := completedEvent("")
	ev.Metadata = nil

	require.NoError(t, f.processor.HandleCheckoutCompleted(context.Background(), "t1", ev))
	assert.Equal(t, 1, f.sessions.Calls)
	assert.Equal(t, domain.PaymentStatusCompleted, f.orders.get("o1").PaymentStatus)
}

func TestHandleCheckoutCompleted_MissingReferenceAborts(t *testing.T) {
	f := newProcessorFixture()
	f.sessions.Err = errors.New("not found")
	ev := completedEvent("")
	ev.Metadata = nil

	err := f.processor.HandleCheckoutCompleted(context.Background(), "t1", ev)

	assert.ErrorIs(t, err, domain.ErrMissingOrderReference)
	assert.Equal(t, 1, f.sessions.Calls)
	assert.Equal(t, 0, f.orders.MarkCalls)
}

func TestHandleCheckoutCompleted_OrderNotFound(t *testing.T) {
	f := newProcessorFixture()

	err := f.processor.HandleCheckoutCompleted(context.Background(), "t1", completedEvent("missing"))

	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, 0, f.orders.MarkCalls)
	assert.Empty(t, f.notifier.Sent)
}

func TestHandleCheckoutCompleted_ForeignTenantMetadata(t *testing.T) {
	f := newProcessorFixture()
	ev := completedEvent("o1")
	ev.Metadata[domain.MetaTenantID] = "t2"

	err := f.processor.HandleCheckoutCompleted(context.Background(), "t1", ev)

	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, 0, f.orders.MarkCalls)
	assert.Equal(t, domain.PaymentStatusPending, f.orders.get("o1").PaymentStatus)
}

func TestHandleCheckoutCompleted_UpdateFailurePropagates(t *testing.T) {
	f := newProcessorFixture()
	f.orders.MarkErr = errors.New("write conflict")

	err := f.processor.HandleCheckoutCompleted(context.Background(), "t1", completedEvent("o1"))

	require.Error(t, err)
	assert.Empty(t, f.notifier.Sent)
	assert.Empty(t, f.events.Published)
}

func TestHandleCheckoutCompleted_KeepsAdminStatus(t *testing.T) {
	f := newProcessorFixture()
	f.orders.Orders["o1"].Status = domain.OrderStatusCancelled

	require.NoError(t, f.processor.HandleCheckoutCompleted(context.Background(), "t1", completedEvent("o1")))

	assert.Equal(t, domain.OrderStatusCancelled, f.orders.get("o1").Status)
	assert.Equal(t, domain.OrderStatusCancelled, f.events.Published[0].Status)
}

func TestHandleCheckoutCompleted_FailedPaymentCannotSettle(t *testing.T) {
	f := newProcessorFixture()
	f.orders.Orders["o1"].PaymentStatus = domain.PaymentStatusFailed

	err := f.processor.HandleCheckoutCompleted(context.Background(), "t1", completedEvent("o1"))

	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, 0, f.orders.MarkCalls)
	assert.Equal(t, domain.PaymentStatusFailed, f.orders.get("o1").PaymentStatus)
	assert.Empty(t, f.notifier.Sent)
	assert.Empty(t, f.events.Published)
}
