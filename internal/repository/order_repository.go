package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateOrder = errors.New("order already exists")

type orderDocument struct {
	ID               any                  `bson:"_id"`
	TenantID         string               `bson:"tenant_id"`
	UserID           string               `bson:"user_id,omitempty"`
	Email            string               `bson:"email"`
	Items            []domain.OrderItem   `bson:"items"`
	DeliveryMethod   string               `bson:"delivery_method"`
	Subtotal         float64              `bson:"subtotal"`
	ShippingCost     float64              `bson:"shipping_cost"`
	Tax              float64              `bson:"tax"`
	Total            float64              `bson:"total"`
	Currency         string               `bson:"currency"`
	Status           domain.OrderStatus   `bson:"status"`
	PaymentStatus    domain.PaymentStatus `bson:"payment_status"`
	GatewaySessionID string               `bson:"gateway_session_id,omitempty"`
	GatewayChargeID  string               `bson:"gateway_charge_id,omitempty"`
	FulfillmentRef   string               `bson:"fulfillment_ref,omitempty"`
	CreatedAt        time.Time            `bson:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at"`
	PaidAt           *time.Time           `bson:"paid_at,omitempty"`
}

func toOrderDocument(o *domain.Order) orderDocument {
	return orderDocument{
		ID:               storedID(o.ID),
		TenantID:         o.TenantID,
		UserID:           o.UserID,
		Email:            o.Email,
		Items:            o.Items,
		DeliveryMethod:   string(o.DeliveryMethod),
		Subtotal:         o.Subtotal,
		ShippingCost:     o.ShippingCost,
		Tax:              o.Tax,
		Total:            o.Total,
		Currency:         o.Currency,
		Status:           o.Status,
		PaymentStatus:    o.PaymentStatus,
		GatewaySessionID: o.GatewaySessionID,
		GatewayChargeID:  o.GatewayChargeID,
		FulfillmentRef:   o.FulfillmentRef,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		PaidAt:           o.PaidAt,
	}
}

func (d orderDocument) toDomain() *domain.Order {
	return &domain.Order{
		ID:               idString(d.ID),
		TenantID:         d.TenantID,
		UserID:           d.UserID,
		Email:            d.Email,
		Items:            d.Items,
		DeliveryMethod:   domain.DeliveryMethod(d.DeliveryMethod),
		Subtotal:         d.Subtotal,
		ShippingCost:     d.ShippingCost,
		Tax:              d.Tax,
		Total:            d.Total,
		Currency:         d.Currency,
		Status:           d.Status,
		PaymentStatus:    d.PaymentStatus,
		GatewaySessionID: d.GatewaySessionID,
		GatewayChargeID:  d.GatewayChargeID,
		FulfillmentRef:   d.FulfillmentRef,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		PaidAt:           d.PaidAt,
	}
}

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection("orders")}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	if order.ID == "" {
		order.ID = NewOrderID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, toOrderDocument(order)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, tenantID, orderID string) (*domain.Order, error) {
	filter := idFilter(orderID)
	filter["tenant_id"] = tenantID

	var doc orderDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toDomain(), nil
}

// MarkPaid settles a pending payment and moves a pending order to Processing.
// The update only matches while payment_status is Pending, so applying it again
// changes nothing; the returned bool reports whether this call did the transition.
// An order already moved on by an admin keeps its status but is still marked paid.
func (r *OrderRepository) MarkPaid(ctx context.Context, tenantID, orderID string, payment domain.Payment) (bool, error) {
	filter := idFilter(orderID)
	filter["tenant_id"] = tenantID
	filter["payment_status"] = domain.PaymentStatusPending

	set := bson.M{
		"payment_status": domain.PaymentStatusCompleted,
		"status": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$status", domain.OrderStatusPending}},
			domain.OrderStatusProcessing,
			"$status",
		}},
		"paid_at":    payment.PaidAt,
		"updated_at": time.Now().UTC(),
	}
	if payment.SessionID != "" {
		set["gateway_session_id"] = payment.SessionID
	}
	if payment.ChargeID != "" {
		set["gateway_charge_id"] = payment.ChargeID
	}
	update := mongo.Pipeline{{{Key: "$set", Value: set}}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	return result.ModifiedCount == 1, nil
}

func (r *OrderRepository) SetFulfillmentRef(ctx context.Context, tenantID, orderID, ref string) error {
	filter := idFilter(orderID)
	filter["tenant_id"] = tenantID
	update := bson.M{"$set": bson.M{"fulfillment_ref": ref, "updated_at": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set fulfillment reference: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// ListOrdersByEmail returns the buyer's orders within a tenant, newest first.
func (r *OrderRepository) ListOrdersByEmail(ctx context.Context, tenantID, email string) ([]*domain.Order, error) {
	filter := bson.M{"tenant_id": tenantID, "email": domain.NormalizeEmail(email)}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "email", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "gateway_session_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"gateway_session_id": bson.M{"$type": "string"}}),
		},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
