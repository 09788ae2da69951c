// Package gateway talks to the hosted payment provider on behalf of one tenant.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

var (
	ErrNotFound    = errors.New("gateway resource not found")
	ErrUnavailable = errors.New("payment gateway unavailable")
)

// Client is the set of provider operations the payment core needs. A Client
// is bound to one tenant's secret key.
type Client interface {
	CreateProduct(ctx context.Context, p ProductParams) (string, error)
	// FindProduct looks up a product carrying the given metadata tag for a tenant.
	FindProduct(ctx context.Context, tenantID, tag string) (string, bool, error)
	CreatePrice(ctx context.Context, p PriceParams) (string, error)
	CreateSession(ctx context.Context, p SessionParams) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	FindCustomerByEmail(ctx context.Context, email string) (string, bool, error)
	ListInvoices(ctx context.Context, customerID string) ([]Invoice, error)
	// ListCompletedSessions returns up to limit completed sessions, newest first.
	ListCompletedSessions(ctx context.Context, limit int) ([]SessionInfo, error)
}

// Connector opens a Client for a tenant's credentials.
type Connector interface {
	Connect(creds domain.Credentials) Client
}

type ProductParams struct {
	Name     string
	Metadata map[string]string
}

type PriceParams struct {
	ProductRef string
	UnitAmount int64
	Currency   string
	Metadata   map[string]string
}

type SessionParams struct {
	LineItems      []domain.LineItem
	SuccessURL     string
	CancelURL      string
	CustomerEmail  string
	Metadata       map[string]string
	IdempotencyKey string
}

// SessionInfo is a hosted checkout session as read back from the provider.
type SessionInfo struct {
	ID            string
	Status        string
	PaymentStatus string
	PaymentRef    string
	CustomerEmail string
	AmountTotal   int64
	Currency      string
	Created       time.Time
	Metadata      map[string]string
}

type Invoice struct {
	ID         string
	Number     string
	PaymentRef string
	AmountPaid int64
	Currency   string
	Status     string
	HostedURL  string
	Created    time.Time
}

// Error is a provider error with its HTTP status.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return "gateway: " + e.Code + ": " + e.Message
	}
	return "gateway: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsClientError reports whether err is a provider rejection of the request itself
// rather than a provider outage.
func IsClientError(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode >= 400 && gwErr.StatusCode < 500 && gwErr.StatusCode != 429
	}
	return errors.Is(err, ErrNotFound)
}
