package domain

type Environment string

const (
	EnvironmentTest Environment = "test"
	EnvironmentLive Environment = "live"
)

// PaymentConfig is the tenant's gateway setup as stored by the tenant config store.
type PaymentConfig struct {
	Environment        Environment `bson:"environment" json:"environment"`
	TestSecretKey      string      `bson:"test_secret_key" json:"test_secret_key"`
	TestPublishableKey string      `bson:"test_publishable_key" json:"test_publishable_key"`
	LiveSecretKey      string      `bson:"live_secret_key" json:"live_secret_key"`
	LivePublishableKey string      `bson:"live_publishable_key" json:"live_publishable_key"`
	TestWebhookSecret  string      `bson:"test_webhook_secret" json:"test_webhook_secret"`
	LiveWebhookSecret  string      `bson:"live_webhook_secret" json:"live_webhook_secret"`
	WebhookSecret      string      `bson:"webhook_secret" json:"webhook_secret"` // legacy single secret
	IsConfigured       bool        `bson:"is_configured" json:"is_configured"`
}

// Credentials are the resolved keys for one tenant and environment.
type Credentials struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	IsTestMode     bool
}

type DeliveryOption struct {
	BaseCost    float64 `bson:"base_cost" json:"base_cost"`
	PerItemCost float64 `bson:"per_item_cost" json:"per_item_cost"`
}

type DeliverySchedule struct {
	Standard   DeliveryOption `bson:"standard" json:"standard"`
	Express    DeliveryOption `bson:"express" json:"express"`
	PickupCost float64        `bson:"pickup_cost" json:"pickup_cost"`
}

type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "standard"
	DeliveryExpress  DeliveryMethod = "express"
	DeliveryPickup   DeliveryMethod = "pickup"
)

type Tenant struct {
	ID                 string           `bson:"-" json:"id"`
	Name               string           `bson:"name" json:"name"`
	Domain             string           `bson:"domain" json:"domain"`
	SenderEmail        string           `bson:"sender_email" json:"sender_email"`
	SenderName         string           `bson:"sender_name" json:"sender_name"`
	Currency           string           `bson:"currency" json:"currency"`
	VATRate            float64          `bson:"vat_rate" json:"vat_rate"`
	PricesIncludeVAT   bool             `bson:"prices_include_vat" json:"prices_include_vat"`
	Delivery           DeliverySchedule `bson:"delivery" json:"delivery"`
	FulfillmentEnabled bool             `bson:"fulfillment_enabled" json:"fulfillment_enabled"`
	Payment            PaymentConfig    `bson:"payment" json:"payment"`
}
