package domain

import "encoding/json"

type EventType string

const (
	EventCheckoutCompleted EventType = "checkout.session.completed"
	EventPaymentSucceeded  EventType = "payment_intent.succeeded"
	EventPaymentFailed     EventType = "payment_intent.payment_failed"
)

// InboundEvent is a raw webhook delivery. It may be delivered more than once.
type InboundEvent struct {
	Payload    []byte
	Signature  string
	TenantHint string
}

// Event is a verified webhook event.
type Event struct {
	ID       string
	Type     EventType
	TenantID string
	// ObjectID is the id of the event's object, the session id for completed checkouts.
	ObjectID   string
	PaymentRef string
	Metadata   map[string]string
	Raw        json.RawMessage
}

// Message is handed to the notification sink.
type Message struct {
	TenantID    string `json:"tenant_id"`
	Recipient   string `json:"recipient"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
}
