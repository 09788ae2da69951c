package sink

import (
	"context"
	"log/slog"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

// Discard stands in for the Kafka sinks when no brokers are configured.
type Discard struct {
	logger *slog.Logger
}

func NewDiscard(logger *slog.Logger) *Discard {
	return &Discard{logger: logger}
}

func (d *Discard) Send(ctx context.Context, msg domain.Message) error {
	d.logger.InfoContext(ctx, "notification dropped, no broker configured",
		"tenant_id", msg.TenantID, "subject", msg.Subject)
	return nil
}

func (d *Discard) PublishOrderPaid(ctx context.Context, order *domain.Order) error {
	d.logger.InfoContext(ctx, "order event dropped, no broker configured",
		"tenant_id", order.TenantID, "order_id", order.ID)
	return nil
}
