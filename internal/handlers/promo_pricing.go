package handlers

import "fmt"

type promoUpdateInput struct {
	Price        *float64
	PromoEnabled *bool
	PromoPrice   *float64
}

type promoUpdateResult struct {
	Price      float64
	PromoPrice *float64
}

// validatePromoFields rejects a promo that would never apply.
func validatePromoFields(price float64, promo *float64) error {
	if price <= 0 {
		return fmt.Errorf("price must be greater than 0")
	}
	if promo == nil {
		return nil
	}
	if *promo <= 0 {
		return fmt.Errorf("promoPrice must be greater than 0")
	}
	if *promo >= price {
		return fmt.Errorf("promoPrice must be less than price")
	}
	return nil
}

// normalizePromo treats a zero promo as "no promo".
func normalizePromo(promo *float64) *float64 {
	if promo == nil || *promo == 0 {
		return nil
	}
	value := *promo
	return &value
}

// mergePromoUpdate merges a partial price/promo update onto the stored
// values. promoEnabled=false clears the promo.
func mergePromoUpdate(existingPrice float64, existingPromo *float64, input promoUpdateInput) promoUpdateResult {
	result := promoUpdateResult{
		Price:      existingPrice,
		PromoPrice: normalizePromo(existingPromo),
	}

	if input.Price != nil {
		result.Price = *input.Price
	}
	if input.PromoEnabled != nil && !*input.PromoEnabled {
		result.PromoPrice = nil
	}
	if input.PromoPrice != nil {
		result.PromoPrice = normalizePromo(input.PromoPrice)
	}
	return result
}
