package orders

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

// ComputeTotals has no side effects; identical items always give identical totals.
func ComputeTotals(items []models.OrderItem, rule pricing.ShippingRule) pricing.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(pricing.LineTotal(item.Price, item.Quantity))
	}
	return rule.Totals(subtotal)
}
