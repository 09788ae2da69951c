package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/stripe/stripe-go/v83"
)

// StripeConnector creates Stripe clients with per-tenant keys. The global
// stripe.Key is never set.
type StripeConnector struct{}

func (StripeConnector) Connect(creds domain.Credentials) Client {
	return &Stripe{sc: stripe.NewClient(creds.SecretKey)}
}

type Stripe struct {
	sc *stripe.Client
}

const sessionPageSize = 100

func (s *Stripe) CreateProduct(ctx context.Context, p ProductParams) (string, error) {
	params := &stripe.ProductCreateParams{
		Name:     stripe.String(p.Name),
		Metadata: p.Metadata,
	}
	prod, err := s.sc.V1Products.Create(ctx, params)
	if err != nil {
		return "", wrapStripeError(err)
	}
	return prod.ID, nil
}

func (s *Stripe) FindProduct(ctx context.Context, tenantID, tag string) (string, bool, error) {
	params := &stripe.ProductSearchParams{
		SearchParams: stripe.SearchParams{
			Query: fmt.Sprintf("metadata['%s']:'%s' AND metadata['%s']:'%s' AND active:'true'",
				domain.MetaTenantID, escapeQuery(tenantID), domain.MetaTag, escapeQuery(tag)),
			Limit: stripe.Int64(1),
		},
	}
	for prod, err := range s.sc.V1Products.Search(ctx, params) {
		if err != nil {
			return "", false, wrapStripeError(err)
		}
		return prod.ID, true, nil
	}
	return "", false, nil
}

func (s *Stripe) CreatePrice(ctx context.Context, p PriceParams) (string, error) {
	params := &stripe.PriceCreateParams{
		Product:    stripe.String(p.ProductRef),
		UnitAmount: stripe.Int64(p.UnitAmount),
		Currency:   stripe.String(strings.ToLower(p.Currency)),
		Metadata:   p.Metadata,
	}
	price, err := s.sc.V1Prices.Create(ctx, params)
	if err != nil {
		return "", wrapStripeError(err)
	}
	return price.ID, nil
}

func (s *Stripe) CreateSession(ctx context.Context, p SessionParams) (*domain.Session, error) {
	lines := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		lines = append(lines, &stripe.CheckoutSessionCreateLineItemParams{
			Price:    stripe.String(li.PriceRef),
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:             stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:        lines,
		SuccessURL:       stripe.String(p.SuccessURL),
		CancelURL:        stripe.String(p.CancelURL),
		CustomerCreation: stripe.String(string(stripe.CheckoutSessionCustomerCreationAlways)),
		Metadata:         p.Metadata,
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: p.Metadata,
		},
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if p.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(p.IdempotencyKey)
	}

	cs, err := s.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return &domain.Session{ID: cs.ID, URL: cs.URL}, nil
}

func (s *Stripe) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	cs, err := s.sc.V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	info := toSessionInfo(cs)
	return &info, nil
}

func (s *Stripe) FindCustomerByEmail(ctx context.Context, email string) (string, bool, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)

	for c, err := range s.sc.V1Customers.List(ctx, params) {
		if err != nil {
			return "", false, wrapStripeError(err)
		}
		return c.ID, true, nil
	}
	return "", false, nil
}

func (s *Stripe) ListInvoices(ctx context.Context, customerID string) ([]Invoice, error) {
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	params.Limit = stripe.Int64(100)
	params.AddExpand("data.payments")

	var out []Invoice
	for inv, err := range s.sc.V1Invoices.List(ctx, params) {
		if err != nil {
			return nil, wrapStripeError(err)
		}
		out = append(out, Invoice{
			ID:         inv.ID,
			Number:     inv.Number,
			PaymentRef: invoicePaymentRef(inv),
			AmountPaid: inv.AmountPaid,
			Currency:   string(inv.Currency),
			Status:     string(inv.Status),
			HostedURL:  inv.HostedInvoiceURL,
			Created:    time.Unix(inv.Created, 0).UTC(),
		})
	}
	return out, nil
}

func (s *Stripe) ListCompletedSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	params := &stripe.CheckoutSessionListParams{
		Status: stripe.String(string(stripe.CheckoutSessionStatusComplete)),
	}
	params.Limit = stripe.Int64(sessionPageSize)

	var out []SessionInfo
	for cs, err := range s.sc.V1CheckoutSessions.List(ctx, params) {
		if err != nil {
			return nil, wrapStripeError(err)
		}
		out = append(out, toSessionInfo(cs))
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func toSessionInfo(cs *stripe.CheckoutSession) SessionInfo {
	info := SessionInfo{
		ID:            cs.ID,
		Status:        string(cs.Status),
		PaymentStatus: string(cs.PaymentStatus),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		Created:       time.Unix(cs.Created, 0).UTC(),
		Metadata:      cs.Metadata,
		CustomerEmail: cs.CustomerEmail,
	}
	if cs.PaymentIntent != nil {
		info.PaymentRef = cs.PaymentIntent.ID
	}
	if info.CustomerEmail == "" && cs.CustomerDetails != nil {
		info.CustomerEmail = cs.CustomerDetails.Email
	}
	return info
}

func invoicePaymentRef(inv *stripe.Invoice) string {
	if inv.Payments == nil {
		return ""
	}
	for _, p := range inv.Payments.Data {
		if p.Payment != nil && p.Payment.PaymentIntent != nil {
			return p.Payment.PaymentIntent.ID
		}
	}
	return ""
}

func escapeQuery(v string) string {
	return strings.ReplaceAll(v, "'", "\\'")
}

func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	gwErr := &Error{
		StatusCode: stripeErr.HTTPStatusCode,
		Code:       string(stripeErr.Code),
		Message:    stripeErr.Msg,
		Err:        err,
	}
	if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing {
		gwErr.Err = ErrNotFound
	}
	return gwErr
}
