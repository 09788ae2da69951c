package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// CanTransitionTo reports whether an order may move from one status to another.
// Statuses only move forward; Delivered and Cancelled are final.
func CanTransitionTo(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanSettle reports whether a payment status may move to the target status.
func CanSettle(from, to PaymentStatus) bool {
	return from == PaymentStatusPending && to.IsTerminal()
}

type OrderItem struct {
	ProductID   string  `bson:"product_id" json:"product_id"`
	VariantID   string  `bson:"variant_id,omitempty" json:"variant_id,omitempty"`
	ProductName string  `bson:"product_name" json:"product_name"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Price       float64 `bson:"price" json:"price"`
}

type Order struct {
	ID               string         `json:"id"`
	TenantID         string         `json:"tenant_id"`
	UserID           string         `json:"user_id,omitempty"`
	Email            string         `json:"email"`
	Items            []OrderItem    `json:"items"`
	DeliveryMethod   DeliveryMethod `json:"delivery_method"`
	Subtotal         float64        `json:"subtotal"`
	ShippingCost     float64        `json:"shipping_cost"`
	Tax              float64        `json:"tax"`
	Total            float64        `json:"total"`
	Currency         string         `json:"currency"`
	Status           OrderStatus    `json:"status"`
	PaymentStatus    PaymentStatus  `json:"payment_status"`
	GatewaySessionID string         `json:"gateway_session_id,omitempty"`
	GatewayChargeID  string         `json:"gateway_charge_id,omitempty"`
	FulfillmentRef   string         `json:"fulfillment_ref,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
}

// Payment carries the gateway references recorded when an order is paid.
type Payment struct {
	SessionID string
	ChargeID  string
	PaidAt    time.Time
}
