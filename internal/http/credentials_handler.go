package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type CredentialInvalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
}

// CredentialsHandler lets tenant admin tooling drop cached payment settings
// after an edit, so the next request reads them from the store.
type CredentialsHandler struct {
	credentials CredentialInvalidator
	logger      *slog.Logger
}

func NewCredentialsHandler(credentials CredentialInvalidator, logger *slog.Logger) *CredentialsHandler {
	return &CredentialsHandler{credentials: credentials, logger: logger}
}

// DELETE /api/v1/tenants/{tenant_id}/payment-config/cache
func (h *CredentialsHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	if err := h.credentials.Invalidate(r.Context(), tenantID); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to invalidate credential cache", "tenant_id", tenantID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	h.logger.InfoContext(r.Context(), "credential cache invalidated", "tenant_id", tenantID)
	w.WriteHeader(http.StatusNoContent)
}
