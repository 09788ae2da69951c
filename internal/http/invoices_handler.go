package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/go-chi/chi/v5"
)

type InvoiceLister interface {
	Invoices(ctx context.Context, tenantID, email string) ([]domain.InvoiceRecord, error)
}

type InvoicesHandler struct {
	invoices InvoiceLister
	logger   *slog.Logger
}

func NewInvoicesHandler(invoices InvoiceLister, logger *slog.Logger) *InvoicesHandler {
	return &InvoicesHandler{invoices: invoices, logger: logger}
}

// GET /api/v1/tenants/{tenant_id}/invoices?email=
func (h *InvoicesHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, http.StatusBadRequest, "missing_email", "email is required")
		return
	}

	records, err := h.invoices.Invoices(r.Context(), tenantID, email)
	if err != nil {
		if errorKind(err) == "internal" {
			h.logger.ErrorContext(r.Context(), "invoice reconciliation failed", "tenant_id", tenantID, "error", err)
		}
		respondDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.InvoiceRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}
