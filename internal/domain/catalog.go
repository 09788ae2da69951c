package domain

type Variant struct {
	ID    string  `bson:"id" json:"id"`
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
	Stock *int    `bson:"stock,omitempty" json:"stock,omitempty"`
}

type Product struct {
	ID               string    `bson:"-" json:"id"`
	TenantID         string    `bson:"tenant_id" json:"tenant_id"`
	Name             string    `bson:"name" json:"name"`
	Price            float64   `bson:"price" json:"price"`
	Stock            int       `bson:"stock" json:"stock"`
	Variants         []Variant `bson:"variants" json:"variants"`
	GatewayProductID string    `bson:"gateway_product_id,omitempty" json:"gateway_product_id,omitempty"`
}

// EffectiveStock returns the variant stock when the variant defines one, otherwise the product stock.
func (p *Product) EffectiveStock(variantID string) int {
	if variantID != "" {
		for _, v := range p.Variants {
			if v.ID == variantID && v.Stock != nil {
				return *v.Stock
			}
		}
	}
	return p.Stock
}

// StockKey names the stock pool a line draws from. Variants without their own
// stock share the product pool.
func (p *Product) StockKey(variantID string) string {
	if variantID != "" {
		for _, v := range p.Variants {
			if v.ID == variantID && v.Stock != nil {
				return p.ID + "/" + v.ID
			}
		}
	}
	return p.ID
}

// CartItem is one line of the immutable cart snapshot handed over at checkout.
type CartItem struct {
	ProductID            string   `bson:"product_id" json:"product_id"`
	VariantID            string   `bson:"variant_id,omitempty" json:"variant_id,omitempty"`
	Name                 string   `bson:"name" json:"name"`
	Quantity             int      `bson:"quantity" json:"quantity"`
	UnitPrice            float64  `bson:"unit_price" json:"unit_price"`
	DeliveryCostOverride *float64 `bson:"delivery_cost_override,omitempty" json:"delivery_cost_override,omitempty"`
}

type Cart struct {
	ID       string     `bson:"-" json:"id"`
	TenantID string     `bson:"tenant_id" json:"tenant_id"`
	UserID   string     `bson:"user_id" json:"user_id"`
	Items    []CartItem `bson:"items" json:"items"`
}
