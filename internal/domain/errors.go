package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIntegrationNotConfigured    = errors.New("payment integration is not configured for this store")
	ErrProductNotFound             = errors.New("product not found")
	ErrInsufficientStock           = errors.New("insufficient stock")
	ErrWebhookAuthenticationFailed = errors.New("webhook authentication failed")
	ErrHandlerFailed               = errors.New("webhook handler failed")
	ErrOrderNotFound               = errors.New("order not found")
	ErrMissingOrderReference       = errors.New("event carries no order reference")
	ErrCartNotFound                = errors.New("cart not found")
	ErrEmptyCart                   = errors.New("cart is empty, nothing to checkout")
	ErrInvalidQuantity             = errors.New("quantity must be positive")
	ErrTenantNotFound              = errors.New("tenant not found")
	ErrUnknownDeliveryMethod       = errors.New("unknown delivery method")
	ErrIllegalTransition           = errors.New("illegal payment status transition")
)

// InsufficientStockError names the product that cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
