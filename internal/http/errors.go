package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/gateway"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

var kindToStatus = map[string]int{
	"integration_not_configured": http.StatusUnprocessableEntity,
	"product_not_found":          http.StatusNotFound,
	"insufficient_stock":         http.StatusConflict,
	"invalid_quantity":           http.StatusBadRequest,
	"cart_not_found":             http.StatusNotFound,
	"empty_cart":                 http.StatusBadRequest,
	"tenant_not_found":           http.StatusNotFound,
	"unknown_delivery_method":    http.StatusBadRequest,
	"authentication_failed":      http.StatusBadRequest,
	"handler_failed":             http.StatusInternalServerError,
	"gateway_unavailable":        http.StatusServiceUnavailable,
	"gateway_rejected":           http.StatusBadGateway,
	"timeout":                    http.StatusGatewayTimeout,
	"canceled":                   http.StatusRequestTimeout,
}

// kinds is checked in order; the first sentinel matched names the error.
var kinds = []struct {
	err  error
	kind string
}{
	{domain.ErrIntegrationNotConfigured, "integration_not_configured"},
	{domain.ErrInsufficientStock, "insufficient_stock"},
	{domain.ErrProductNotFound, "product_not_found"},
	{domain.ErrInvalidQuantity, "invalid_quantity"},
	{domain.ErrCartNotFound, "cart_not_found"},
	{domain.ErrEmptyCart, "empty_cart"},
	{domain.ErrTenantNotFound, "tenant_not_found"},
	{domain.ErrUnknownDeliveryMethod, "unknown_delivery_method"},
	{domain.ErrWebhookAuthenticationFailed, "authentication_failed"},
	{domain.ErrHandlerFailed, "handler_failed"},
	{gateway.ErrUnavailable, "gateway_unavailable"},
	{context.DeadlineExceeded, "timeout"},
	{context.Canceled, "canceled"},
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if gateway.IsClientError(err) {
		return "gateway_rejected"
	}
	return "internal"
}

func httpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if s, ok := kindToStatus[errorKind(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// userMessage hides internal error text; classified errors are safe to show.
func userMessage(err error) string {
	if errorKind(err) == "internal" {
		return "internal server error"
	}
	return err.Error()
}
