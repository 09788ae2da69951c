// Package reconcile merges the payment gateway's invoices and completed
// checkout sessions with the orders stored for a buyer.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/gateway"
	"github.com/fjod/go_cart/storefront-payments/internal/pricing"
	"golang.org/x/sync/errgroup"
)

const (
	// AmountTolerance is the largest difference between an invoice amount and an
	// order total that still counts as a fuzzy match.
	AmountTolerance = 0.01
	// DateWindow bounds the distance between invoice and order creation dates.
	DateWindow = 48 * time.Hour

	DefaultSessionScanLimit = 300
)

type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string) (domain.Credentials, bool)
}

type OrderStore interface {
	ListOrdersByEmail(ctx context.Context, tenantID, email string) ([]*domain.Order, error)
}

type Engine struct {
	creds     CredentialResolver
	gateways  gateway.Connector
	orders    OrderStore
	scanLimit int
	logger    *slog.Logger
}

// NewEngine creates a reconciliation engine. A non-positive scanLimit uses DefaultSessionScanLimit.
func NewEngine(creds CredentialResolver, gateways gateway.Connector, orders OrderStore, scanLimit int, logger *slog.Logger) *Engine {
	if scanLimit <= 0 {
		scanLimit = DefaultSessionScanLimit
	}
	return &Engine{
		creds:     creds,
		gateways:  gateways,
		orders:    orders,
		scanLimit: scanLimit,
		logger:    logger,
	}
}

// Invoices returns the buyer's invoice view, newest first. Formally issued
// invoices are required; completed sessions are added when they can be listed.
func (e *Engine) Invoices(ctx context.Context, tenantID, email string) ([]domain.InvoiceRecord, error) {
	creds, ok := e.creds.Resolve(ctx, tenantID)
	if !ok {
		return nil, domain.ErrIntegrationNotConfigured
	}
	client := e.gateways.Connect(creds)

	customerID, found, err := client.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up customer: %w", err)
	}
	if !found {
		return []domain.InvoiceRecord{}, nil
	}

	var (
		invoices []gateway.Invoice
		sessions []gateway.SessionInfo
		orders   []*domain.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoices, err = client.ListInvoices(gctx, customerID)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sessions, err = client.ListCompletedSessions(gctx, e.scanLimit)
		if err != nil {
			e.logger.WarnContext(ctx, "completed sessions unavailable, returning invoices only",
				"tenant_id", tenantID, "error", err)
			sessions = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orders, err = e.orders.ListOrdersByEmail(gctx, tenantID, domain.NormalizeEmail(email))
		if err != nil {
			return fmt.Errorf("failed to load orders: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := merge(invoices, sessions, email, orders)
	e.logger.DebugContext(ctx, "invoices reconciled",
		"tenant_id", tenantID, "invoices", len(invoices), "sessions", len(sessions), "records", len(records))
	return records, nil
}

// merge links invoices and the buyer's unrepresented sessions to orders. Exact
// links are settled first so a fuzzy match never takes an order that a
// payment reference points at.
func merge(invoices []gateway.Invoice, sessions []gateway.SessionInfo, email string, orders []*domain.Order) []domain.InvoiceRecord {
	byPaymentRef := make(map[string]gateway.SessionInfo, len(sessions))
	for _, s := range sessions {
		if s.PaymentRef != "" {
			byPaymentRef[s.PaymentRef] = s
		}
	}
	represented := make(map[string]bool, len(invoices))

	type pending struct {
		record  domain.InvoiceRecord
		orderID string
	}
	var all []pending

	for _, inv := range invoices {
		rec := domain.InvoiceRecord{
			ExternalID: inv.ID,
			Number:     inv.Number,
			Source:     domain.SourceInvoice,
			PaymentRef: inv.PaymentRef,
			Amount:     pricing.FromCents(inv.AmountPaid),
			Currency:   inv.Currency,
			Status:     inv.Status,
			CreatedAt:  inv.Created,
			HostedURL:  inv.HostedURL,
		}
		var orderID string
		if inv.PaymentRef != "" {
			represented[inv.PaymentRef] = true
			if s, ok := byPaymentRef[inv.PaymentRef]; ok {
				orderID = s.Metadata[domain.MetaOrderID]
			}
		}
		all = append(all, pending{record: rec, orderID: orderID})
	}

	for _, s := range sessions {
		if s.PaymentRef != "" && represented[s.PaymentRef] {
			continue
		}
		if !strings.EqualFold(s.CustomerEmail, email) {
			continue
		}
		if s.PaymentRef != "" {
			represented[s.PaymentRef] = true
		}
		all = append(all, pending{
			record: domain.InvoiceRecord{
				ExternalID: s.ID,
				Source:     domain.SourceCheckoutSession,
				PaymentRef: s.PaymentRef,
				Amount:     pricing.FromCents(s.AmountTotal),
				Currency:   s.Currency,
				Status:     s.PaymentStatus,
				CreatedAt:  s.Created,
			},
			orderID: s.Metadata[domain.MetaOrderID],
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].record.CreatedAt.After(all[j].record.CreatedAt)
	})

	known := make(map[string]*domain.Order, len(orders))
	for _, o := range orders {
		known[o.ID] = o
	}
	claimed := make(map[string]bool)
	for i := range all {
		all[i].record.MatchKind = domain.MatchNone
		if o, ok := known[all[i].orderID]; ok && !claimed[o.ID] {
			all[i].record.LinkedOrderID = o.ID
			all[i].record.MatchKind = domain.MatchExact
			claimed[o.ID] = true
		}
	}
	for i := range all {
		if all[i].record.MatchKind != domain.MatchNone {
			continue
		}
		if o := FuzzyMatch(all[i].record.Amount, all[i].record.CreatedAt, orders, claimed); o != nil {
			all[i].record.LinkedOrderID = o.ID
			all[i].record.MatchKind = domain.MatchFuzzy
			claimed[o.ID] = true
		}
	}

	records := make([]domain.InvoiceRecord, 0, len(all))
	for _, p := range all {
		records = append(records, p.record)
	}
	return records
}
