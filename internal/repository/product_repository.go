package repository

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDocument struct {
	ID             any `bson:"_id"`
	domain.Product `bson:",inline"`
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection("products")}
}

// GetProducts loads the tenant's products with the given ids in one query.
// Ids that do not exist are simply absent from the result.
func (r *ProductRepository) GetProducts(ctx context.Context, tenantID string, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := idsFilter(ids)
	filter["tenant_id"] = tenantID

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		p := doc.Product
		p.ID = idString(doc.ID)
		products = append(products, &p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return products, nil
}

// SetGatewayProductID stores the payment gateway's catalog reference for a product.
func (r *ProductRepository) SetGatewayProductID(ctx context.Context, tenantID, productID, ref string) error {
	filter := idFilter(productID)
	filter["tenant_id"] = tenantID
	update := bson.M{"$set": bson.M{"gateway_product_id": ref}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set gateway product id: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) SaveProduct(ctx context.Context, p *domain.Product) error {
	doc := productDocument{ID: storedID(p.ID), Product: *p}
	if err := replaceUpsert(ctx, r.collection, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func replaceUpsert(ctx context.Context, coll *mongo.Collection, id any, doc any) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}
