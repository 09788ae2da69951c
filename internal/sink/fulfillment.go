package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/fulfillment"
	"github.com/fjod/go_cart/storefront-payments/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

// rejectedError is a 4xx answer from the fulfillment system. It does not trip the breaker.
type rejectedError struct {
	status int
	body   string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("fulfillment rejected order: status %d: %s", e.status, e.body)
}

type pushRequest struct {
	TenantID string        `json:"tenant_id"`
	Order    *domain.Order `json:"order"`
}

type pushResponse struct {
	ExternalReference string `json:"external_reference"`
}

// HTTPFulfillment pushes paid orders to the warehouse endpoint for enrolled tenants.
type HTTPFulfillment struct {
	url     string
	client  *http.Client
	tenants TenantStore
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

func NewHTTPFulfillment(url string, tenants TenantStore, timeout time.Duration, logger *slog.Logger) *HTTPFulfillment {
	opts := circuitbreaker.DefaultOptions()
	opts.Logger = logger
	opts.IsSuccessful = func(err error) bool {
		var rejected *rejectedError
		return err == nil || errors.As(err, &rejected)
	}
	return &HTTPFulfillment{
		url: strings.TrimRight(url, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tenants: tenants,
		breaker: circuitbreaker.New("fulfillment-sink", opts),
		logger:  logger,
	}
}

// Enrolled reports whether the tenant opted into fulfillment. Without a
// configured endpoint no tenant is enrolled.
func (f *HTTPFulfillment) Enrolled(ctx context.Context, tenantID string) (bool, error) {
	if f.url == "" {
		return false, nil
	}
	tenant, err := f.tenants.GetTenant(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return tenant.FulfillmentEnabled, nil
}

func (f *HTTPFulfillment) PushOrder(ctx context.Context, tenantID string, order *domain.Order) (fulfillment.PushResult, error) {
	body, err := json.Marshal(pushRequest{TenantID: tenantID, Order: order})
	if err != nil {
		return fulfillment.PushResult{}, fmt.Errorf("failed to marshal order: %w", err)
	}

	res, err := circuitbreaker.Do(f.breaker, func() (pushResponse, error) {
		return f.post(ctx, body)
	})
	var rejected *rejectedError
	if errors.As(err, &rejected) {
		f.logger.WarnContext(ctx, "fulfillment rejected order",
			"tenant_id", tenantID, "order_id", order.ID, "status", rejected.status)
		return fulfillment.PushResult{Success: false}, nil
	}
	if err != nil {
		return fulfillment.PushResult{}, err
	}
	return fulfillment.PushResult{Success: true, ExternalReference: res.ExternalReference}, nil
}

func (f *HTTPFulfillment) post(ctx context.Context, body []byte) (pushResponse, error) {
	var out pushResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url+"/orders", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("fulfillment request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return out, fmt.Errorf("failed to read fulfillment response: %w", err)
	}
	switch {
	case resp.StatusCode >= 500:
		return out, fmt.Errorf("fulfillment unavailable: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return out, &rejectedError{status: resp.StatusCode, body: string(payload)}
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &out); err != nil {
			return out, fmt.Errorf("failed to decode fulfillment response: %w", err)
		}
	}
	return out, nil
}
