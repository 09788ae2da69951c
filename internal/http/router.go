// Package http exposes checkout, webhook and invoice endpoints over chi.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Checkout    *CheckoutHandler
	Webhooks    *WebhookHandler
	Invoices    *InvoicesHandler
	Credentials *CredentialsHandler
	// Events is optional; without a journal the route is not mounted.
	Events *EventsHandler
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/tenants/{tenant_id}", func(r chi.Router) {
			r.With(middleware.RequestSize(cfg.MaxRequestBodySize)).Post("/checkout", h.Checkout.StartCheckout)
			r.Get("/invoices", h.Invoices.ListInvoices)
			r.Delete("/payment-config/cache", h.Credentials.Invalidate)
			if h.Events != nil {
				r.Get("/webhook-events", h.Events.ListEvents)
			}
		})
		r.Post("/webhooks/payments", h.Webhooks.Receive)
		r.Post("/webhooks/payments/{tenant_id}", h.Webhooks.Receive)
	})

	return otelhttp.NewHandler(r, "storefront-payments")
}

// RequestIDMiddleware echoes the request id chi assigned back to the caller.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
