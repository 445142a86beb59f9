package orders

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

type QuoteLine struct {
	models.OrderItem
	LineTotal float64 `json:"lineTotal"`
}

type StockWarning struct {
	ProductID primitive.ObjectID  `json:"productId"`
	VariantID *primitive.ObjectID `json:"variantId,omitempty"`
	Requested int                 `json:"requested"`
	Available int                 `json:"available"`
}

type Quote struct {
	Lines      []QuoteLine `json:"lines"`
	TotalItems int         `json:"totalItems"`
	pricing.Totals
	Warnings []StockWarning `json:"warnings"`
}

// Quote prices a cart from stored data without reserving stock. Lines that
// exceed live stock are reported as warnings instead of failing.
func (s *Service) Quote(ctx context.Context, lines []LineInput) (*Quote, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	quote := &Quote{
		Lines:    make([]QuoteLine, 0, len(lines)),
		Warnings: make([]StockWarning, 0),
	}
	requested := make(map[string]int)
	items := make([]models.OrderItem, 0, len(lines))

	for _, line := range lines {
		item, reservations, err := s.resolveLine(ctx, line)
		if err != nil {
			return nil, err
		}
		for _, r := range reservations {
			key := r.product.Hex()
			if r.variantID != nil {
				key += "/" + r.variantID.Hex()
			}
			requested[key] += r.quantity
			if requested[key] > r.available {
				quote.Warnings = append(quote.Warnings, StockWarning{
					ProductID: r.product,
					VariantID: r.variantID,
					Requested: requested[key],
					Available: r.available,
				})
			}
		}
		items = append(items, item)
		quote.TotalItems += item.Quantity
		quote.Lines = append(quote.Lines, QuoteLine{
			OrderItem: item,
			LineTotal: pricing.Round(pricing.LineTotal(item.Price, item.Quantity).InexactFloat64()),
		})
	}

	quote.Totals = ComputeTotals(items, s.shipping)
	return quote, nil
}
