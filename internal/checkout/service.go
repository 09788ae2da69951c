package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/pricing"
)

type CartStore interface {
	GetCart(ctx context.Context, tenantID, cartID string) (*domain.Cart, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
}

type SessionBuilder interface {
	Build(ctx context.Context, tenantID string, items []domain.CheckoutItem, meta domain.CheckoutMetadata) (*domain.Session, error)
}

type StartRequest struct {
	TenantID       string
	CartID         string
	UserID         string
	Email          string
	DeliveryMethod domain.DeliveryMethod
	SuccessURL     string
	CancelURL      string
}

type StartResult struct {
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Service turns a cart into a hosted session and the pending order that the
// payment webhook will later settle.
type Service struct {
	carts    CartStore
	tenants  TenantStore
	products ProductStore
	orders   OrderStore
	builder  SessionBuilder
	cfg      ServiceConfig
	logger   *slog.Logger
}

type ServiceConfig struct {
	NewOrderID      func() string
	DefaultCurrency string
}

func NewService(
	carts CartStore,
	tenants TenantStore,
	products ProductStore,
	orders OrderStore,
	builder SessionBuilder,
	cfg ServiceConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		carts:    carts,
		tenants:  tenants,
		products: products,
		orders:   orders,
		builder:  builder,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Service) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	cart, err := s.carts.GetCart(ctx, req.TenantID, req.CartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	tenant, err := s.tenants.GetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	items, err := s.orderItems(ctx, req.TenantID, cart.Items)
	if err != nil {
		return nil, err
	}

	method := req.DeliveryMethod
	if method == "" {
		method = domain.DeliveryStandard
	}
	shippingItems := pricing.ShippingItemsFromCart(cart.Items)
	shipping, err := pricing.StrictShippingCost(tenant.Delivery, method, shippingItems)
	if errors.Is(err, domain.ErrUnknownDeliveryMethod) {
		s.logger.WarnContext(ctx, "unknown delivery method, pricing as standard",
			"tenant_id", req.TenantID, "method", string(method))
		method = domain.DeliveryStandard
		shipping = pricing.ShippingCost(tenant.Delivery, method, shippingItems)
	}

	subtotal := pricing.OrderSubtotal(items)
	vat := pricing.ComputeTax(subtotal+shipping, tenant.VATRate, tenant.PricesIncludeVAT)

	// with VAT-inclusive prices the tax is already inside the line amounts
	chargedTax := vat.Tax
	if tenant.PricesIncludeVAT {
		chargedTax = 0
	}

	orderID := s.cfg.NewOrderID()
	email := domain.NormalizeEmail(req.Email)
	checkoutItems := make([]domain.CheckoutItem, 0, len(cart.Items))
	for i, it := range cart.Items {
		checkoutItems = append(checkoutItems, domain.CheckoutItem{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: items[i].Price,
		})
	}

	session, err := s.builder.Build(ctx, req.TenantID, checkoutItems, domain.CheckoutMetadata{
		ShippingCost: shipping,
		Tax:          chargedTax,
		SuccessURL:   req.SuccessURL,
		CancelURL:    req.CancelURL,
		Email:        email,
		OrderID:      orderID,
		UserID:       req.UserID,
	})
	if err != nil {
		return nil, err
	}

	currency := tenant.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	order := &domain.Order{
		ID:               orderID,
		TenantID:         req.TenantID,
		UserID:           req.UserID,
		Email:            email,
		Items:            items,
		DeliveryMethod:   method,
		Subtotal:         subtotal,
		ShippingCost:     shipping,
		Tax:              vat.Tax,
		Total:            vat.Gross,
		Currency:         currency,
		Status:           domain.OrderStatusPending,
		PaymentStatus:    domain.PaymentStatusPending,
		GatewaySessionID: session.ID,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "session created but order not stored",
			"tenant_id", req.TenantID, "order_id", orderID, "session_id", session.ID, "error", err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.InfoContext(ctx, "checkout started",
		"tenant_id", req.TenantID, "order_id", orderID, "session_id", session.ID, "total", order.Total)
	return &StartResult{OrderID: orderID, SessionID: session.ID, URL: session.URL}, nil
}

// orderItems snapshots the cart lines. Lines without a cart price take the catalog price,
// so the stored order matches what the session charges.
func (s *Service) orderItems(ctx context.Context, tenantID string, lines []domain.CartItem) ([]domain.OrderItem, error) {
	var missing []string
	for _, l := range lines {
		if l.UnitPrice <= 0 || l.Name == "" {
			missing = append(missing, l.ProductID)
		}
	}
	catalog := map[string]*domain.Product{}
	if len(missing) > 0 {
		products, err := s.products.GetProducts(ctx, tenantID, missing)
		if err != nil {
			return nil, fmt.Errorf("failed to load products: %w", err)
		}
		for _, p := range products {
			catalog[p.ID] = p
		}
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		item := domain.OrderItem{
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			Price:       l.UnitPrice,
		}
		if p, ok := catalog[l.ProductID]; ok {
			if item.Price <= 0 {
				item.Price = CatalogPrice(p, l.VariantID)
			}
			if item.ProductName == "" {
				item.ProductName = p.Name
			}
		}
		items = append(items, item)
	}
	return items, nil
}
