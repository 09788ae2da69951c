// Package checkout builds hosted checkout sessions from cart snapshots.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/gateway"
	"github.com/fjod/go_cart/storefront-payments/internal/pricing"
)

const (
	tagShipping = "shipping"
	tagTax      = "tax"
)

type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string) (domain.Credentials, bool)
}

type ProductStore interface {
	GetProducts(ctx context.Context, tenantID string, ids []string) ([]*domain.Product, error)
	SetGatewayProductID(ctx context.Context, tenantID, productID, ref string) error
}

type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

type Builder struct {
	creds           CredentialResolver
	products        ProductStore
	tenants         TenantStore
	gateways        gateway.Connector
	publicBaseURL   string
	defaultCurrency string
	logger          *slog.Logger
}

type BuilderConfig struct {
	PublicBaseURL   string
	DefaultCurrency string
}

func NewBuilder(
	creds CredentialResolver,
	products ProductStore,
	tenants TenantStore,
	gateways gateway.Connector,
	cfg BuilderConfig,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		creds:           creds,
		products:        products,
		tenants:         tenants,
		gateways:        gateways,
		publicBaseURL:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		defaultCurrency: cfg.DefaultCurrency,
		logger:          logger,
	}
}

// resolvedLine is a validated checkout item with the price it will be charged at.
type resolvedLine struct {
	product  *domain.Product
	quantity int
	price    float64
}

// Build validates every item against the catalog, mints one single-use price per
// line and creates the hosted session. Nothing is written to the gateway until
// all items have passed validation.
func (b *Builder) Build(ctx context.Context, tenantID string, items []domain.CheckoutItem, meta domain.CheckoutMetadata) (*domain.Session, error) {
	creds, ok := b.creds.Resolve(ctx, tenantID)
	if !ok {
		return nil, domain.ErrIntegrationNotConfigured
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	tenant, err := b.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	lines, err := b.resolveLines(ctx, tenantID, items)
	if err != nil {
		return nil, err
	}

	client := b.gateways.Connect(creds)
	currency := tenant.Currency
	if currency == "" {
		currency = b.defaultCurrency
	}

	lineItems := make([]domain.LineItem, 0, len(lines)+2)
	for _, line := range lines {
		productRef, err := b.ensureRegistered(ctx, client, tenantID, line.product)
		if err != nil {
			return nil, err
		}
		priceRef, err := client.CreatePrice(ctx, gateway.PriceParams{
			ProductRef: productRef,
			UnitAmount: pricing.ToCents(line.price),
			Currency:   currency,
			Metadata:   map[string]string{domain.MetaTenantID: tenantID, domain.MetaOrderID: meta.OrderID},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create price for %q: %w", line.product.Name, err)
		}
		lineItems = append(lineItems, domain.LineItem{PriceRef: priceRef, Quantity: int64(line.quantity)})
	}

	if meta.ShippingCost > 0 {
		if li, err := b.chargeLine(ctx, client, tenantID, tagShipping, "Shipping", meta.ShippingCost, currency); err != nil {
			b.logger.WarnContext(ctx, "shipping line skipped", "tenant_id", tenantID, "order_id", meta.OrderID, "error", err)
		} else {
			lineItems = append(lineItems, li)
		}
	}
	if meta.Tax > 0 {
		if li, err := b.chargeLine(ctx, client, tenantID, tagTax, "VAT", meta.Tax, currency); err != nil {
			b.logger.WarnContext(ctx, "tax line skipped", "tenant_id", tenantID, "order_id", meta.OrderID, "error", err)
		} else {
			lineItems = append(lineItems, li)
		}
	}

	successURL, cancelURL := b.redirectURLs(tenant, meta)

	params := gateway.SessionParams{
		LineItems:     lineItems,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		CustomerEmail: meta.Email,
		Metadata:      sessionMetadata(tenantID, meta),
	}
	if meta.OrderID != "" {
		params.IdempotencyKey = "checkout-" + meta.OrderID
	}
	session, err := client.CreateSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	b.logger.InfoContext(ctx, "checkout session created",
		"tenant_id", tenantID, "order_id", meta.OrderID, "session_id", session.ID, "lines", len(lineItems))
	return session, nil
}

func (b *Builder) resolveLines(ctx context.Context, tenantID string, items []domain.CheckoutItem) ([]resolvedLine, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", domain.ErrInvalidQuantity, it.ProductID)
		}
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	products, err := b.products.GetProducts(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	if len(byID) != len(ids) {
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
			}
		}
		return nil, domain.ErrProductNotFound
	}

	// lines drawing on the same stock pool count together
	requested := make(map[string]int, len(items))
	for _, it := range items {
		requested[byID[it.ProductID].StockKey(it.VariantID)] += it.Quantity
	}

	lines := make([]resolvedLine, 0, len(items))
	for _, it := range items {
		p := byID[it.ProductID]
		available := p.EffectiveStock(it.VariantID)
		if want := requested[p.StockKey(it.VariantID)]; want > available {
			return nil, &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   want,
				Available:   available,
			}
		}
		lines = append(lines, resolvedLine{product: p, quantity: it.Quantity, price: linePrice(p, it)})
	}
	return lines, nil
}

// linePrice prefers the price the buyer saw in the cart over the live catalog price.
func linePrice(p *domain.Product, it domain.CheckoutItem) float64 {
	if it.UnitPrice > 0 {
		return it.UnitPrice
	}
	return CatalogPrice(p, it.VariantID)
}

// CatalogPrice is the variant price when the variant sets one, else the product price.
func CatalogPrice(p *domain.Product, variantID string) float64 {
	if variantID != "" {
		for _, v := range p.Variants {
			if v.ID == variantID && v.Price > 0 {
				return v.Price
			}
		}
	}
	return p.Price
}

func (b *Builder) ensureRegistered(ctx context.Context, client gateway.Client, tenantID string, p *domain.Product) (string, error) {
	if p.GatewayProductID != "" {
		return p.GatewayProductID, nil
	}
	ref, err := client.CreateProduct(ctx, gateway.ProductParams{
		Name:     p.Name,
		Metadata: map[string]string{domain.MetaTenantID: tenantID, "product_id": p.ID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to register product %q: %w", p.Name, err)
	}
	if err := b.products.SetGatewayProductID(ctx, tenantID, p.ID, ref); err != nil {
		return "", fmt.Errorf("failed to store gateway product for %q: %w", p.Name, err)
	}
	p.GatewayProductID = ref
	return ref, nil
}

// chargeLine mints a price for a non-merchandise charge on the tenant's pseudo-product
// for tag, creating the pseudo-product the first time.
func (b *Builder) chargeLine(ctx context.Context, client gateway.Client, tenantID, tag, name string, amount float64, currency string) (domain.LineItem, error) {
	productRef, found, err := client.FindProduct(ctx, tenantID, tag)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("lookup %s product: %w", tag, err)
	}
	if !found {
		productRef, err = client.CreateProduct(ctx, gateway.ProductParams{
			Name:     name,
			Metadata: map[string]string{domain.MetaTenantID: tenantID, domain.MetaTag: tag},
		})
		if err != nil {
			return domain.LineItem{}, fmt.Errorf("create %s product: %w", tag, err)
		}
	}
	priceRef, err := client.CreatePrice(ctx, gateway.PriceParams{
		ProductRef: productRef,
		UnitAmount: pricing.ToCents(amount),
		Currency:   currency,
		Metadata:   map[string]string{domain.MetaTenantID: tenantID, domain.MetaTag: tag},
	})
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("create %s price: %w", tag, err)
	}
	return domain.LineItem{PriceRef: priceRef, Quantity: 1}, nil
}

func (b *Builder) redirectURLs(tenant *domain.Tenant, meta domain.CheckoutMetadata) (string, string) {
	base := b.publicBaseURL + "/t/" + url.PathEscape(tenant.ID)
	if tenant.Domain != "" {
		base = "https://" + strings.TrimRight(tenant.Domain, "/")
	}

	success := meta.SuccessURL
	if success == "" {
		// {CHECKOUT_SESSION_ID} is substituted by the gateway and must stay unescaped
		success = base + "/checkout/success?order_id=" + url.QueryEscape(meta.OrderID) + "&session_id={CHECKOUT_SESSION_ID}"
	}
	cancel := meta.CancelURL
	if cancel == "" {
		cancel = base + "/cart"
	}
	return success, cancel
}

func sessionMetadata(tenantID string, meta domain.CheckoutMetadata) map[string]string {
	md := map[string]string{
		domain.MetaTenantID:     tenantID,
		domain.MetaOrderID:      meta.OrderID,
		domain.MetaShippingCost: strconv.FormatFloat(meta.ShippingCost, 'f', 2, 64),
		domain.MetaTax:          strconv.FormatFloat(meta.Tax, 'f', 2, 64),
	}
	if meta.UserID != "" {
		md[domain.MetaUserID] = meta.UserID
	}
	return md
}
