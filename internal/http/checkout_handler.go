package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront-payments/internal/checkout"
	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CheckoutStarter interface {
	Start(ctx context.Context, req checkout.StartRequest) (*checkout.StartResult, error)
}

type CheckoutHandler struct {
	checkout CheckoutStarter
	logger   *slog.Logger
}

func NewCheckoutHandler(starter CheckoutStarter, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: starter, logger: logger}
}

type StartCheckoutRequestDTO struct {
	CartID         string `json:"cart_id"`
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	DeliveryMethod string `json:"delivery_method"`
	SuccessURL     string `json:"success_url"`
	CancelURL      string `json:"cancel_url"`
}

// POST /api/v1/tenants/{tenant_id}/checkout
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if tenantID == "" {
		respondError(w, http.StatusBadRequest, "missing_tenant_id", "tenant_id is required")
		return
	}

	var req StartCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CartID == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "cart_id is required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "invalid_email", "a buyer email is required")
		return
	}
	method := domain.DeliveryMethod(req.DeliveryMethod)
	if method == "" {
		method = domain.DeliveryStandard
	}

	res, err := h.checkout.Start(r.Context(), checkout.StartRequest{
		TenantID:       tenantID,
		CartID:         req.CartID,
		UserID:         req.UserID,
		Email:          req.Email,
		DeliveryMethod: method,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
	})
	if err != nil {
		if errorKind(err) == "internal" {
			h.logger.ErrorContext(r.Context(), "checkout failed", "tenant_id", tenantID, "cart_id", req.CartID, "error", err)
		}
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}
