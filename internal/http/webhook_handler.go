package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/webhook"
	"github.com/go-chi/chi/v5"
)

const signatureHeader = "Stripe-Signature"

type WebhookDispatcher interface {
	Handle(ctx context.Context, in domain.InboundEvent) webhook.Result
}

type WebhookHandler struct {
	dispatcher  WebhookDispatcher
	maxBodySize int64
}

func NewWebhookHandler(dispatcher WebhookDispatcher, maxBodySize int64) *WebhookHandler {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &WebhookHandler{dispatcher: dispatcher, maxBodySize: maxBodySize}
}

type webhookAck struct {
	Received bool `json:"received"`
}

// POST /api/v1/webhooks/payments[/{tenant_id}]
//
// Rejected deliveries get 400 and failed handlers 500 so the provider redelivers.
// Everything else is acknowledged.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook payload too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read body")
		return
	}

	hint := chi.URLParam(r, "tenant_id")
	if hint == "" {
		hint = r.URL.Query().Get("tenant")
	}

	res := h.dispatcher.Handle(r.Context(), domain.InboundEvent{
		Payload:    body,
		Signature:  r.Header.Get(signatureHeader),
		TenantHint: hint,
	})
	switch res.State {
	case webhook.StateRejected:
		respondError(w, http.StatusBadRequest, "authentication_failed", "webhook signature verification failed")
	case webhook.StateHandlerFailed:
		respondError(w, http.StatusInternalServerError, "handler_failed", "webhook processing failed")
	default:
		respondJSON(w, http.StatusOK, webhookAck{Received: true})
	}
}
