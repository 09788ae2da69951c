package pricing

import "github.com/fjod/go_cart/storefront-payments/internal/domain"

// Breakdown is the VAT split of an amount.
type Breakdown struct {
	Net   float64
	Tax   float64
	Gross float64
}

// ComputeTax applies one VAT rate (0.21 for 21%) to an amount.
// With pricesIncludeVAT the amount is gross and the tax is extracted from it;
// otherwise the amount is net and tax is added on top.
func ComputeTax(amount, rate float64, pricesIncludeVAT bool) Breakdown {
	if rate <= 0 {
		a := Round2(amount)
		return Breakdown{Net: a, Gross: a}
	}
	cents := toCents(amount)
	if pricesIncludeVAT {
		net := int64(float64(cents)/(1+rate) + 0.5)
		return Breakdown{Net: FromCents(net), Tax: FromCents(cents - net), Gross: FromCents(cents)}
	}
	tax := int64(float64(cents)*rate + 0.5)
	return Breakdown{Net: FromCents(cents), Tax: FromCents(tax), Gross: FromCents(cents + tax)}
}

// OrderSubtotal sums price*quantity over order lines, in cents to avoid drift.
func OrderSubtotal(items []domain.OrderItem) float64 {
	var total int64
	for _, it := range items {
		total += toCents(it.Price) * int64(it.Quantity)
	}
	return FromCents(total)
}
