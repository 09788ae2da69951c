package fulfillment

import (
	"context"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/gateway"
)

type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string) (domain.Credentials, bool)
}

// GatewaySessions reads sessions back from the payment gateway with the tenant's keys.
type GatewaySessions struct {
	creds    CredentialResolver
	gateways gateway.Connector
}

func NewGatewaySessions(creds CredentialResolver, gateways gateway.Connector) *GatewaySessions {
	return &GatewaySessions{creds: creds, gateways: gateways}
}

func (g *GatewaySessions) SessionMetadata(ctx context.Context, tenantID, sessionID string) (map[string]string, error) {
	creds, ok := g.creds.Resolve(ctx, tenantID)
	if !ok {
		return nil, domain.ErrIntegrationNotConfigured
	}
	s, err := g.gateways.Connect(creds).GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.Metadata, nil
}
