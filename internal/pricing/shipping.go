// Package pricing holds the pure money computations shared by checkout and confirmations.
package pricing

import (
	"math"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
)

// ShippingItem is the part of a cart line that shipping depends on.
type ShippingItem struct {
	Quantity int
	// Override replaces the per-item cost of this line only; the base cost is unaffected.
	Override *float64
}

// ShippingCost returns the delivery cost for the selected method.
// Pickup costs the configured flat amount. Standard and express cost
// base + sum(per-item cost * quantity). Unknown methods are priced as standard.
func ShippingCost(schedule domain.DeliverySchedule, method domain.DeliveryMethod, items []ShippingItem) float64 {
	cost, err := StrictShippingCost(schedule, method, items)
	if err != nil {
		cost, _ = StrictShippingCost(schedule, domain.DeliveryStandard, items)
	}
	return cost
}

// StrictShippingCost is ShippingCost without the standard fallback.
func StrictShippingCost(schedule domain.DeliverySchedule, method domain.DeliveryMethod, items []ShippingItem) (float64, error) {
	var opt domain.DeliveryOption
	switch method {
	case domain.DeliveryPickup:
		return nonNegative(schedule.PickupCost), nil
	case domain.DeliveryStandard:
		opt = schedule.Standard
	case domain.DeliveryExpress:
		opt = schedule.Express
	default:
		return 0, domain.ErrUnknownDeliveryMethod
	}

	// summed in cents so the result does not depend on item order
	total := toCents(opt.BaseCost)
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		unit := opt.PerItemCost
		if item.Override != nil {
			unit = *item.Override
		}
		total += toCents(unit) * int64(item.Quantity)
	}
	return nonNegative(FromCents(total)), nil
}

// ShippingItemsFromCart maps cart lines to shipping items.
func ShippingItemsFromCart(items []domain.CartItem) []ShippingItem {
	out := make([]ShippingItem, 0, len(items))
	for _, it := range items {
		out = append(out, ShippingItem{Quantity: it.Quantity, Override: it.DeliveryCostOverride})
	}
	return out
}

// ToCents converts a decimal amount to integer minor units.
func ToCents(amount float64) int64 {
	return toCents(amount)
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// Round2 rounds to whole cents.
func Round2(amount float64) float64 {
	return FromCents(toCents(amount))
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
