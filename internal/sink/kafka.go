// Package sink delivers the payment core's outbound messages: buyer
// notifications and order events over Kafka, paid orders to the fulfillment system over HTTP.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	NotificationsTopic = "tenant-notifications"
	// OrderEventsTopic is consumed by the cart service, which clears the buyer's cart on success.
	OrderEventsTopic = "checkout-outbox"

	EventOrderPaid = "OrderPaid"

	// writes happen inside webhook requests, one message at a time
	writeBatchTimeout = 10 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func newWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           writeBatchTimeout,
		WriteTimeout:           10 * time.Second,
	}
}

// Notifier hands buyer messages to the notification service.
type Notifier struct {
	writer messageWriter
}

func NewNotifier(brokers ...string) *Notifier {
	return &Notifier{writer: newWriter(NotificationsTopic, brokers...)}
}

func (n *Notifier) Send(ctx context.Context, msg domain.Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.TenantID),
		Value: value,
	})
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

type orderPaidPayload struct {
	CheckoutID  string    `json:"checkout_id"`
	UserID      string    `json:"user_id"`
	OrderID     string    `json:"order_id"`
	TenantID    string    `json:"tenant_id"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	CompletedAt time.Time `json:"completed_at"`
}

// OrderEvents publishes order lifecycle events keyed by order id.
type OrderEvents struct {
	writer messageWriter
}

func NewOrderEvents(brokers ...string) *OrderEvents {
	return &OrderEvents{writer: newWriter(OrderEventsTopic, brokers...)}
}

func (e *OrderEvents) PublishOrderPaid(ctx context.Context, order *domain.Order) error {
	completedAt := order.UpdatedAt
	if order.PaidAt != nil {
		completedAt = *order.PaidAt
	}
	value, err := json.Marshal(orderPaidPayload{
		CheckoutID:  order.GatewaySessionID,
		UserID:      order.UserID,
		OrderID:     order.ID,
		TenantID:    order.TenantID,
		TotalAmount: order.Total,
		Currency:    order.Currency,
		CompletedAt: completedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	return e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPaid)},
		},
	})
}

func (e *OrderEvents) Close() error {
	return e.writer.Close()
}
