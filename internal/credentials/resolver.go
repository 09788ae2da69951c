// Package credentials resolves per-tenant payment gateway keys.
package credentials

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"golang.org/x/sync/singleflight"
)

// lookupTimeout bounds a shared store read, which outlives the caller that started it.
const lookupTimeout = 5 * time.Second

// TenantStore is the read side of the tenant config store.
type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

type Resolver struct {
	store  TenantStore
	cache  Cache
	group  singleflight.Group
	logger *slog.Logger
}

func NewResolver(store TenantStore, cache Cache, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, cache: cache, logger: logger}
}

// Resolve returns the tenant's credentials for its configured environment.
// A missing, unconfigured or unreadable tenant yields false, never an error,
// so callers can move on to the next tenant candidate.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (domain.Credentials, bool) {
	if tenantID == "" {
		return domain.Credentials{}, false
	}
	cfg, err := r.paymentConfig(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrTenantNotFound) {
			r.logger.WarnContext(ctx, "payment config lookup failed", "tenant_id", tenantID, "error", err)
		}
		return domain.Credentials{}, false
	}
	return Select(*cfg)
}

// Invalidate drops the cached config after the tenant's payment settings change.
func (r *Resolver) Invalidate(ctx context.Context, tenantID string) error {
	return r.cache.Delete(ctx, tenantID)
}

func (r *Resolver) paymentConfig(ctx context.Context, tenantID string) (*domain.PaymentConfig, error) {
	cfg, err := r.cache.Get(ctx, tenantID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.WarnContext(ctx, "credential cache read failed", "tenant_id", tenantID, "error", err)
	}

	v, err, _ := r.group.Do(tenantID, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		tenant, err := r.store.GetTenant(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		cfg := tenant.Payment
		if err := r.cache.Set(ctx, tenantID, &cfg); err != nil {
			r.logger.WarnContext(ctx, "credential cache write failed", "tenant_id", tenantID, "error", err)
		}
		return &cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PaymentConfig), nil
}

// Select picks the key pair and webhook secret for the configured environment.
// The per-environment webhook secret wins over the legacy single secret.
func Select(cfg domain.PaymentConfig) (domain.Credentials, bool) {
	if !cfg.IsConfigured {
		return domain.Credentials{}, false
	}

	var creds domain.Credentials
	var webhookSecret string
	if cfg.Environment == domain.EnvironmentLive {
		creds.SecretKey = cfg.LiveSecretKey
		creds.PublishableKey = cfg.LivePublishableKey
		webhookSecret = cfg.LiveWebhookSecret
	} else {
		creds.SecretKey = cfg.TestSecretKey
		creds.PublishableKey = cfg.TestPublishableKey
		creds.IsTestMode = true
		webhookSecret = cfg.TestWebhookSecret
	}
	if webhookSecret == "" {
		webhookSecret = cfg.WebhookSecret
	}
	creds.WebhookSecret = webhookSecret

	if creds.SecretKey == "" {
		return domain.Credentials{}, false
	}
	return creds, true
}
