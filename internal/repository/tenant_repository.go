package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

type tenantDocument struct {
	ID            any `bson:"_id"`
	domain.Tenant `bson:",inline"`
}

type TenantRepository struct {
	collection *mongo.Collection
}

func NewTenantRepository(db *mongo.Database) *TenantRepository {
	return &TenantRepository{collection: db.Collection("tenants")}
}

func (r *TenantRepository) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	var doc tenantDocument
	err := r.collection.FindOne(ctx, idFilter(tenantID)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	tenant := doc.Tenant
	tenant.ID = idString(doc.ID)
	return &tenant, nil
}

// SaveTenant upserts the tenant document. Used by admin tooling and tests.
func (r *TenantRepository) SaveTenant(ctx context.Context, tenant *domain.Tenant) error {
	doc := tenantDocument{ID: storedID(tenant.ID), Tenant: *tenant}
	if err := replaceUpsert(ctx, r.collection, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}
	return nil
}
