// Package fulfillment settles paid orders and fans out the post-payment side effects.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

type OrderStore interface {
	GetOrder(ctx context.Context, tenantID, orderID string) (*domain.Order, error)
	MarkPaid(ctx context.Context, tenantID, orderID string, payment domain.Payment) (bool, error)
	SetFulfillmentRef(ctx context.Context, tenantID, orderID, ref string) error
}

type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

// SessionSource re-reads a hosted session when a delivery arrives without metadata.
type SessionSource interface {
	SessionMetadata(ctx context.Context, tenantID, sessionID string) (map[string]string, error)
}

type PushResult struct {
	Success           bool
	ExternalReference string
}

// Sink is the external fulfillment system. Tenants opt in, so every push is
// preceded by an enrollment check.
type Sink interface {
	Enrolled(ctx context.Context, tenantID string) (bool, error)
	PushOrder(ctx context.Context, tenantID string, order *domain.Order) (PushResult, error)
}

type Notifier interface {
	Send(ctx context.Context, msg domain.Message) error
}

type OrderEvents interface {
	PublishOrderPaid(ctx context.Context, order *domain.Order) error
}

type Processor struct {
	orders   OrderStore
	tenants  TenantStore
	sessions SessionSource
	sink     Sink
	notifier Notifier
	events   OrderEvents
	now      func() time.Time
	logger   *slog.Logger
}

func NewProcessor(
	orders OrderStore,
	tenants TenantStore,
	sessions SessionSource,
	sink Sink,
	notifier Notifier,
	events OrderEvents,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		orders:   orders,
		tenants:  tenants,
		sessions: sessions,
		sink:     sink,
		notifier: notifier,
		events:   events,
		now:      time.Now,
		logger:   logger,
	}
}

// HandleCheckoutCompleted marks the referenced order paid. Repeated deliveries
// of the same event leave the order as the first one did and trigger no side effects.
// Only a failure to read or update the order is returned; side effects are logged.
func (p *Processor) HandleCheckoutCompleted(ctx context.Context, tenantID string, event domain.Event) error {
	orderID, err := p.orderReference(ctx, tenantID, event)
	if err != nil {
		return err
	}
	log := p.logger.With("tenant_id", tenantID, "order_id", orderID, "event_id", event.ID)

	order, err := p.orders.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			log.WarnContext(ctx, "paid order not found")
		}
		return err
	}
	// a completed payment goes on to MarkPaid, which reports it unchanged
	if order.PaymentStatus != domain.PaymentStatusCompleted &&
		!domain.CanSettle(order.PaymentStatus, domain.PaymentStatusCompleted) {
		log.WarnContext(ctx, "paid event for a payment that cannot settle", "payment_status", order.PaymentStatus)
		return fmt.Errorf("%w: %s to %s", domain.ErrIllegalTransition, order.PaymentStatus, domain.PaymentStatusCompleted)
	}

	paidAt := p.now().UTC()
	changed, err := p.orders.MarkPaid(ctx, tenantID, orderID, domain.Payment{
		SessionID: event.ObjectID,
		ChargeID:  event.PaymentRef,
		PaidAt:    paidAt,
	})
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if !changed {
		log.InfoContext(ctx, "order already settled, skipping side effects")
		return nil
	}

	if domain.CanTransitionTo(order.Status, domain.OrderStatusProcessing) {
		order.Status = domain.OrderStatusProcessing
	}
	order.PaymentStatus = domain.PaymentStatusCompleted
	order.PaidAt = &paidAt
	if event.PaymentRef != "" {
		order.GatewayChargeID = event.PaymentRef
	}
	log.InfoContext(ctx, "order paid", "status", order.Status.String(), "total", order.Total)

	p.isolate(ctx, log, "fulfillment push", func() error { return p.pushFulfillment(ctx, order) })
	p.isolate(ctx, log, "buyer confirmation", func() error { return p.sendConfirmation(ctx, order) })
	p.isolate(ctx, log, "order paid event", func() error { return p.events.PublishOrderPaid(ctx, order) })
	return nil
}

// orderReference reads the order id from the event metadata, re-fetching the
// session once when the delivery was trimmed.
func (p *Processor) orderReference(ctx context.Context, tenantID string, event domain.Event) (string, error) {
	md := event.Metadata
	if (md[domain.MetaOrderID] == "" || md[domain.MetaTenantID] == "") && event.ObjectID != "" {
		fetched, err := p.sessions.SessionMetadata(ctx, tenantID, event.ObjectID)
		if err != nil {
			p.logger.WarnContext(ctx, "session re-fetch failed",
				"tenant_id", tenantID, "session_id", event.ObjectID, "error", err)
		} else {
			md = fetched
		}
	}

	orderID := md[domain.MetaOrderID]
	if orderID == "" {
		return "", domain.ErrMissingOrderReference
	}
	if owner := md[domain.MetaTenantID]; owner != "" && owner != tenantID {
		p.logger.WarnContext(ctx, "event metadata names another tenant",
			"tenant_id", tenantID, "metadata_tenant", owner, "order_id", orderID)
		return "", fmt.Errorf("%w: order %s does not belong to tenant %s", domain.ErrOrderNotFound, orderID, tenantID)
	}
	return orderID, nil
}

func (p *Processor) pushFulfillment(ctx context.Context, order *domain.Order) error {
	enrolled, err := p.sink.Enrolled(ctx, order.TenantID)
	if err != nil {
		return fmt.Errorf("enrollment check: %w", err)
	}
	if !enrolled {
		return nil
	}
	res, err := p.sink.PushOrder(ctx, order.TenantID, order)
	if err != nil {
		return err
	}
	if !res.Success {
		return errors.New("fulfillment sink rejected order")
	}
	if res.ExternalReference != "" {
		if err := p.orders.SetFulfillmentRef(ctx, order.TenantID, order.ID, res.ExternalReference); err != nil {
			return fmt.Errorf("store fulfillment reference: %w", err)
		}
		order.FulfillmentRef = res.ExternalReference
	}
	return nil
}

func (p *Processor) sendConfirmation(ctx context.Context, order *domain.Order) error {
	if order.Email == "" {
		return errors.New("order has no buyer email")
	}
	tenant, err := p.tenants.GetTenant(ctx, order.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}
	return p.notifier.Send(ctx, ComposeConfirmation(tenant, order))
}

func (p *Processor) isolate(ctx context.Context, log *slog.Logger, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "side effect panicked", "side_effect", name, "panic", fmt.Sprint(r))
		}
	}()
	if err := fn(); err != nil {
		log.WarnContext(ctx, "side effect failed", "side_effect", name, "error", err)
	}
}
