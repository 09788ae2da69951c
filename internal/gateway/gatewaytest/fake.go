// Package gatewaytest provides an in-memory payment gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/gateway"
)

type Price struct {
	ID string
	gateway.PriceParams
}

type Product struct {
	ID string
	gateway.ProductParams
}

// Fake records every write and serves reads from its fields. Set the *Err
// fields to make the matching operation fail.
type Fake struct {
	mu sync.Mutex

	Products  []Product
	Prices    []Price
	Sessions  []gateway.SessionParams
	Connected []domain.Credentials

	// Session lookups by id, customers by email, invoices by customer id.
	SessionsByID      map[string]*gateway.SessionInfo
	Customers         map[string]string
	Invoices          map[string][]gateway.Invoice
	CompletedSessions []gateway.SessionInfo

	CreateProductErr   error
	FindProductErr     error
	CreatePriceErr     error
	PriceErrForProduct map[string]error
	CreateSessionErr   error
	GetSessionErr      error
	CustomerErr        error
	InvoicesErr        error
	SessionsErr        error

	seq int
}

func New() *Fake {
	return &Fake{
		SessionsByID:       map[string]*gateway.SessionInfo{},
		Customers:          map[string]string{},
		Invoices:           map[string][]gateway.Invoice{},
		PriceErrForProduct: map[string]error{},
	}
}

func (f *Fake) Connect(creds domain.Credentials) gateway.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = append(f.Connected, creds)
	return f
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d", prefix, f.seq)
}

func (f *Fake) CreateProduct(_ context.Context, p gateway.ProductParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateProductErr != nil {
		return "", f.CreateProductErr
	}
	id := f.nextID("prod")
	f.Products = append(f.Products, Product{ID: id, ProductParams: p})
	return id, nil
}

func (f *Fake) FindProduct(_ context.Context, tenantID, tag string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FindProductErr != nil {
		return "", false, f.FindProductErr
	}
	for _, p := range f.Products {
		if p.Metadata[domain.MetaTenantID] == tenantID && p.Metadata[domain.MetaTag] == tag {
			return p.ID, true, nil
		}
	}
	return "", false, nil
}

func (f *Fake) CreatePrice(_ context.Context, p gateway.PriceParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreatePriceErr != nil {
		return "", f.CreatePriceErr
	}
	if err := f.PriceErrForProduct[p.ProductRef]; err != nil {
		return "", err
	}
	id := f.nextID("price")
	f.Prices = append(f.Prices, Price{ID: id, PriceParams: p})
	return id, nil
}

func (f *Fake) CreateSession(_ context.Context, p gateway.SessionParams) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateSessionErr != nil {
		return nil, f.CreateSessionErr
	}
	id := f.nextID("cs_test")
	f.Sessions = append(f.Sessions, p)
	return &domain.Session{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (f *Fake) GetSession(_ context.Context, sessionID string) (*gateway.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetSessionErr != nil {
		return nil, f.GetSessionErr
	}
	s, ok := f.SessionsByID[sessionID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return s, nil
}

func (f *Fake) FindCustomerByEmail(_ context.Context, email string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CustomerErr != nil {
		return "", false, f.CustomerErr
	}
	id, ok := f.Customers[email]
	return id, ok, nil
}

func (f *Fake) ListInvoices(_ context.Context, customerID string) ([]gateway.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InvoicesErr != nil {
		return nil, f.InvoicesErr
	}
	return f.Invoices[customerID], nil
}

func (f *Fake) ListCompletedSessions(_ context.Context, limit int) ([]gateway.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SessionsErr != nil {
		return nil, f.SessionsErr
	}
	out := append([]gateway.SessionInfo(nil), f.CompletedSessions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PricesFor returns the minted prices attached to a product reference.
func (f *Fake) PricesFor(productRef string) []Price {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Price
	for _, p := range f.Prices {
		if p.ProductRef == productRef {
			out = append(out, p)
		}
	}
	return out
}
