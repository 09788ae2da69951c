package credentials

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

// Cache holds tenant payment configuration for a bounded time.
type Cache interface {
	Get(ctx context.Context, tenantID string) (*domain.PaymentConfig, error)
	Set(ctx context.Context, tenantID string, cfg *domain.PaymentConfig) error
	Delete(ctx context.Context, tenantID string) error
}

var ErrCacheMiss = errors.New("cache miss")
