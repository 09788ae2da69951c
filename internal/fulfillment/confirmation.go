package fulfillment

import (
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront-payments/internal/domain"
	"github.com/fjod/go_cart/storefront-payments/internal/pricing"
)

// ComposeConfirmation renders the buyer confirmation from the stored order lines,
// the stored shipping cost and the tenant's VAT settings. Tax values carried on
// the event or the session are never used here.
func ComposeConfirmation(tenant *domain.Tenant, order *domain.Order) domain.Message {
	subtotal := pricing.OrderSubtotal(order.Items)
	vat := pricing.ComputeTax(subtotal+order.ShippingCost, tenant.VATRate, tenant.PricesIncludeVAT)
	currency := strings.ToUpper(order.Currency)

	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order at %s.\n\n", tenant.Name)
	fmt.Fprintf(&b, "Order: %s\n\n", order.ID)
	for _, it := range order.Items {
		fmt.Fprintf(&b, "%d x %s  %.2f %s\n", it.Quantity, it.ProductName, it.Price*float64(it.Quantity), currency)
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f %s\n", subtotal, currency)
	fmt.Fprintf(&b, "Shipping (%s): %.2f %s\n", order.DeliveryMethod, order.ShippingCost, currency)
	if tenant.VATRate > 0 {
		label := "VAT"
		if tenant.PricesIncludeVAT {
			label = "Included VAT"
		}
		fmt.Fprintf(&b, "%s (%.0f%%): %.2f %s\n", label, tenant.VATRate*100, vat.Tax, currency)
	}
	fmt.Fprintf(&b, "Total: %.2f %s\n", vat.Gross, currency)

	return domain.Message{
		TenantID:    tenant.ID,
		Recipient:   order.Email,
		Subject:     fmt.Sprintf("%s: order %s confirmed", tenant.Name, order.ID),
		Body:        b.String(),
		SenderName:  tenant.SenderName,
		SenderEmail: tenant.SenderEmail,
	}
}
