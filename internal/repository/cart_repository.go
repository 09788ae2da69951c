package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

type cartDocument struct {
	ID          any `bson:"_id"`
	domain.Cart `bson:",inline"`
}

// CartRepository reads cart snapshots owned by the cart service.
type CartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection("carts")}
}

func (r *CartRepository) GetCart(ctx context.Context, tenantID, cartID string) (*domain.Cart, error) {
	filter := idFilter(cartID)
	filter["tenant_id"] = tenantID

	var doc cartDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	cart := doc.Cart
	cart.ID = idString(doc.ID)
	return &cart, nil
}

func (r *CartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	doc := cartDocument{ID: storedID(cart.ID), Cart: *cart}
	if err := replaceUpsert(ctx, r.collection, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
