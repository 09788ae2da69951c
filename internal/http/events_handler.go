package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront-payments/internal/journal"
	"github.com/go-chi/chi/v5"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

type EventReader interface {
	Recent(ctx context.Context, tenantID string, limit int) ([]journal.Entry, error)
}

// EventsHandler lists recent webhook outcomes for a tenant.
type EventsHandler struct {
	events EventReader
	logger *slog.Logger
}

func NewEventsHandler(events EventReader, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{events: events, logger: logger}
}

// GET /api/v1/tenants/{tenant_id}/webhook-events?limit=
func (h *EventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	limit := defaultEventsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventsLimit)
	}

	entries, err := h.events.Recent(r.Context(), tenantID, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read webhook journal", "tenant_id", tenantID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	respondJSON(w, http.StatusOK, entries)
}
