// Package webhook authenticates payment provider deliveries and routes them to handlers.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/journal"
	"github.com/stripe/stripe-go/v83"
	stripewebhook "github.com/stripe/stripe-go/v83/webhook"
)

type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string) (domain.Credentials, bool)
}

// CheckoutHandler reacts to a verified completed checkout.
type CheckoutHandler interface {
	HandleCheckoutCompleted(ctx context.Context, tenantID string, event domain.Event) error
}

type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Result is the outcome of one delivery. Err is set for Rejected and HandlerFailed.
type Result struct {
	State     State
	EventID   string
	EventType domain.EventType
	TenantID  string
	Err       error
}

type Dispatcher struct {
	creds    CredentialResolver
	checkout CheckoutHandler
	journal  Recorder
	logger   *slog.Logger
}

func NewDispatcher(creds CredentialResolver, checkout CheckoutHandler, journal Recorder, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{creds: creds, checkout: checkout, journal: journal, logger: logger}
}

// Handle verifies the delivery and dispatches it. Nothing is mutated unless the
// signature verifies against a tenant's webhook secret.
func (d *Dispatcher) Handle(ctx context.Context, in domain.InboundEvent) Result {
	event, state, err := d.verify(ctx, in)
	if err != nil {
		return Result{State: StateRejected, Err: err}
	}

	res := Result{State: StateDispatched, EventID: event.ID, EventType: event.Type, TenantID: event.TenantID}
	res.State, res.Err = d.dispatch(ctx, event)

	d.record(ctx, event, res)
	d.logger.InfoContext(ctx, "webhook processed",
		"event_id", event.ID, "event_type", string(event.Type), "tenant_id", event.TenantID,
		"verified", state.String(), "state", res.State.String())
	return res
}

func (d *Dispatcher) verify(ctx context.Context, in domain.InboundEvent) (*domain.Event, State, error) {
	var reason string
	if in.TenantHint != "" {
		event, err := d.verifyFor(ctx, in, in.TenantHint)
		if err == nil {
			return event, StateVerifiedWithHint, nil
		}
		reason = err.Error()
	}

	// The unverified parse only picks the next tenant to try.
	candidate := unverifiedTenant(in.Payload)
	if candidate != "" && candidate != in.TenantHint {
		event, err := d.verifyFor(ctx, in, candidate)
		if err == nil {
			return event, StateVerifiedWithExtractedTenant, nil
		}
		reason = err.Error()
	}
	if reason == "" {
		reason = "no tenant candidate"
	}

	d.logger.WarnContext(ctx, "webhook authentication failed",
		"tenant_hint", in.TenantHint, "candidate_tenant", candidate, "reason", reason)
	return nil, StateRejected, domain.ErrWebhookAuthenticationFailed
}

var (
	errNoSecret = errors.New("tenant has no webhook secret")
	errNoCreds  = errors.New("tenant is not configured")
)

func (d *Dispatcher) verifyFor(ctx context.Context, in domain.InboundEvent, tenantID string) (*domain.Event, error) {
	creds, ok := d.creds.Resolve(ctx, tenantID)
	if !ok {
		return nil, errNoCreds
	}
	if creds.WebhookSecret == "" {
		return nil, errNoSecret
	}
	ev, err := stripewebhook.ConstructEventWithOptions(in.Payload, in.Signature, creds.WebhookSecret,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("signature check: %w", err)
	}
	return toEvent(ev, tenantID)
}

type eventObject struct {
	ID            string            `json:"id"`
	Metadata      map[string]string `json:"metadata"`
	PaymentIntent json.RawMessage   `json:"payment_intent"`
}

func toEvent(ev stripe.Event, tenantID string) (*domain.Event, error) {
	out := &domain.Event{ID: ev.ID, Type: domain.EventType(ev.Type), TenantID: tenantID}
	if ev.Data == nil {
		return out, nil
	}
	out.Raw = ev.Data.Raw

	var obj eventObject
	if len(ev.Data.Raw) > 0 {
		if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil {
			return nil, fmt.Errorf("decode event object: %w", err)
		}
	}
	out.ObjectID = obj.ID
	out.Metadata = obj.Metadata
	out.PaymentRef = paymentRef(obj.PaymentIntent)
	if out.Type == domain.EventPaymentSucceeded || out.Type == domain.EventPaymentFailed {
		out.PaymentRef = obj.ID
	}
	return out, nil
}

// paymentRef accepts both the plain id and the expanded object form.
func paymentRef(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

func unverifiedTenant(payload []byte) string {
	var env struct {
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return ""
	}
	return env.Data.Object.Metadata[domain.MetaTenantID]
}

func (d *Dispatcher) dispatch(ctx context.Context, event *domain.Event) (state State, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "webhook handler panic", "event_id", event.ID, "panic", fmt.Sprint(r))
			state, err = StateHandlerFailed, fmt.Errorf("%w: panic: %v", domain.ErrHandlerFailed, r)
		}
	}()

	switch event.Type {
	case domain.EventCheckoutCompleted:
		err := d.checkout.HandleCheckoutCompleted(ctx, event.TenantID, *event)
		switch {
		case err == nil:
			return StateHandled, nil
		case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrMissingOrderReference),
			errors.Is(err, domain.ErrIllegalTransition):
			// redelivery cannot fix these
			d.logger.WarnContext(ctx, "checkout event dropped", "event_id", event.ID, "tenant_id", event.TenantID, "error", err)
			return StateHandled, nil
		default:
			d.logger.ErrorContext(ctx, "checkout handler failed", "event_id", event.ID, "tenant_id", event.TenantID, "error", err)
			return StateHandlerFailed, fmt.Errorf("%w: %w", domain.ErrHandlerFailed, err)
		}
	case domain.EventPaymentSucceeded, domain.EventPaymentFailed:
		d.logger.InfoContext(ctx, "payment event recorded",
			"event_id", event.ID, "event_type", string(event.Type), "tenant_id", event.TenantID, "payment_ref", event.PaymentRef)
		return StateHandled, nil
	default:
		d.logger.DebugContext(ctx, "ignoring webhook event", "event_id", event.ID, "event_type", string(event.Type))
		return StateHandled, nil
	}
}

func (d *Dispatcher) record(ctx context.Context, event *domain.Event, res Result) {
	if d.journal == nil {
		return
	}
	entry := journal.Entry{
		EventID:   event.ID,
		EventType: string(event.Type),
		TenantID:  event.TenantID,
		State:     res.State.String(),
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	if err := d.journal.Record(ctx, entry); err != nil {
		d.logger.WarnContext(ctx, "failed to journal webhook event", "event_id", event.ID, "error", err)
	}
}
