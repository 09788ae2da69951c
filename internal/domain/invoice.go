package domain

import "time"

type InvoiceSource string

const (
	SourceInvoice         InvoiceSource = "invoice"
	SourceCheckoutSession InvoiceSource = "checkout_session"
)

type MatchKind string

const (
	MatchNone  MatchKind = "none"
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
)

// InvoiceRecord is the unified invoice view. It is computed per request and never persisted.
type InvoiceRecord struct {
	ExternalID    string        `json:"external_id"`
	Number        string        `json:"number,omitempty"`
	Source        InvoiceSource `json:"source"`
	PaymentRef    string        `json:"payment_ref,omitempty"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Status        string        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	LinkedOrderID string        `json:"linked_order_id,omitempty"`
	MatchKind     MatchKind     `json:"match_kind"`
	HostedURL     string        `json:"hosted_url,omitempty"`
}
