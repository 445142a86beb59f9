package pricing

import "github.com/shopspring/decimal"

// ShippingRule charges a flat fee unless the subtotal reaches the free
// shipping threshold.
type ShippingRule struct {
	FreeThreshold float64
	FlatFee       float64
}

func (r ShippingRule) Cost(subtotal float64) float64 {
	if subtotal >= r.FreeThreshold {
		return 0
	}
	return Round(r.FlatFee)
}

type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shippingCost"`
	Total        float64 `json:"total"`
}

func (r ShippingRule) Totals(subtotal decimal.Decimal) Totals {
	sub := Round(subtotal.InexactFloat64())
	shipping := r.Cost(sub)
	return Totals{
		Subtotal:     sub,
		ShippingCost: shipping,
		Total:        Round(decimal.NewFromFloat(sub).Add(decimal.NewFromFloat(shipping)).InexactFloat64()),
	}
}
