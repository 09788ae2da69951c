package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/pkg/circuitbreaker"
	"golang.org/x/time/rate"
)

// Resilient throttles and circuit-breaks every call made through the clients it connects.
// Provider rejections (4xx) do not count against the breaker.
type Resilient struct {
	next    Connector
	limiter *rate.Limiter
	breaker *circuitbreaker.Breaker
}

func NewResilient(next Connector, rps float64, logger *slog.Logger) *Resilient {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	opts := circuitbreaker.DefaultOptions()
	opts.IsSuccessful = func(err error) bool { return err == nil || IsClientError(err) }
	opts.Logger = logger
	return &Resilient{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: circuitbreaker.New("payment-gateway", opts),
	}
}

func (r *Resilient) Connect(creds domain.Credentials) Client {
	return &resilientClient{next: r.next.Connect(creds), r: r}
}

func guard[T any](ctx context.Context, r *Resilient, fn func() (T, error)) (T, error) {
	var zero T
	if err := r.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	v, err := circuitbreaker.Do(r.breaker, fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return v, err
}

type lookup struct {
	id    string
	found bool
}

type resilientClient struct {
	next Client
	r    *Resilient
}

func (c *resilientClient) CreateProduct(ctx context.Context, p ProductParams) (string, error) {
	return guard(ctx, c.r, func() (string, error) { return c.next.CreateProduct(ctx, p) })
}

func (c *resilientClient) FindProduct(ctx context.Context, tenantID, tag string) (string, bool, error) {
	res, err := guard(ctx, c.r, func() (lookup, error) {
		id, found, err := c.next.FindProduct(ctx, tenantID, tag)
		return lookup{id, found}, err
	})
	return res.id, res.found, err
}

func (c *resilientClient) CreatePrice(ctx context.Context, p PriceParams) (string, error) {
	return guard(ctx, c.r, func() (string, error) { return c.next.CreatePrice(ctx, p) })
}

func (c *resilientClient) CreateSession(ctx context.Context, p SessionParams) (*domain.Session, error) {
	return guard(ctx, c.r, func() (*domain.Session, error) { return c.next.CreateSession(ctx, p) })
}

func (c *resilientClient) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	return guard(ctx, c.r, func() (*SessionInfo, error) { return c.next.GetSession(ctx, sessionID) })
}

func (c *resilientClient) FindCustomerByEmail(ctx context.Context, email string) (string, bool, error) {
	res, err := guard(ctx, c.r, func() (lookup, error) {
		id, found, err := c.next.FindCustomerByEmail(ctx, email)
		return lookup{id, found}, err
	})
	return res.id, res.found, err
}

func (c *resilientClient) ListInvoices(ctx context.Context, customerID string) ([]Invoice, error) {
	return guard(ctx, c.r, func() ([]Invoice, error) { return c.next.ListInvoices(ctx, customerID) })
}

func (c *resilientClient) ListCompletedSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	return guard(ctx, c.r, func() ([]SessionInfo, error) { return c.next.ListCompletedSessions(ctx, limit) })
}
