package domain

import "strings"

// NormalizeEmail is the form buyer emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckoutItem is what the caller asks to buy. UnitPrice is the cart price the buyer agreed to;
// zero means none was supplied.
type CheckoutItem struct {
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice float64
}

type CheckoutMetadata struct {
	ShippingCost float64
	Tax          float64
	SuccessURL   string
	CancelURL    string
	Email        string
	OrderID      string
	UserID       string
}

// LineItem is minted fresh for every checkout attempt and never reused.
type LineItem struct {
	PriceRef string
	Quantity int64
}

type Session struct {
	ID  string
	URL string
}

// Metadata keys carried on the hosted session; the only way to recover context when the webhook arrives.
const (
	MetaTenantID     = "tenant_id"
	MetaUserID       = "user_id"
	MetaOrderID      = "order_id"
	MetaShippingCost = "shipping_cost"
	MetaTax          = "tax"
	MetaTag          = "tag"
)
