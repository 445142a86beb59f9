// Package pricing resolves display prices, promo discounts and pack
// discounts. Every view and the checkout go through these functions.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

type Price struct {
	DisplayPrice    float64 `json:"displayPrice"`
	RegularPrice    float64 `json:"regularPrice"`
	DiscountPercent int     `json:"discountPercent"`
}

func (p Price) OnSale() bool {
	return p.DisplayPrice < p.RegularPrice
}

// Resolve applies a promo price only when it is positive and strictly below
// the base price.
func Resolve(price float64, promo *float64) Price {
	regular := Round(price)
	if promo != nil && *promo > 0 && *promo < price {
		display := Round(*promo)
		return Price{
			DisplayPrice:    display,
			RegularPrice:    regular,
			DiscountPercent: DiscountPercent(regular, display),
		}
	}
	return Price{DisplayPrice: regular, RegularPrice: regular}
}

func DiscountPercent(regular, display float64) int {
	if regular <= 0 || display >= regular {
		return 0
	}
	r := decimal.NewFromFloat(regular)
	d := decimal.NewFromFloat(display)
	return int(r.Sub(d).Div(r).Mul(hundred).Round(0).IntPart())
}

// ForVariant prices a variant; a variant without its own positive price
// inherits the product price and promo.
func ForVariant(p models.Product, v models.Variant) Price {
	if v.Price > 0 {
		return Resolve(v.Price, v.PromoPrice)
	}
	return Resolve(p.Price, p.PromoPrice)
}

// ForProduct returns the listing price. Variant products show a "from"
// price: the cheapest resolved variant price against the cheapest base price.
func ForProduct(p models.Product) Price {
	if !p.HasVariants || len(p.Variants) == 0 {
		return Resolve(p.Price, p.PromoPrice)
	}
	var out Price
	for i, v := range p.Variants {
		resolved := ForVariant(p, v)
		if i == 0 || resolved.DisplayPrice < out.DisplayPrice {
			out.DisplayPrice = resolved.DisplayPrice
		}
		if i == 0 || resolved.RegularPrice < out.RegularPrice {
			out.RegularPrice = resolved.RegularPrice
		}
	}
	out.DiscountPercent = DiscountPercent(out.RegularPrice, out.DisplayPrice)
	return out
}

// UnitPrice is what one unit costs in a cart or order line.
func UnitPrice(p models.Product, v *models.Variant) float64 {
	if v != nil {
		return ForVariant(p, *v).DisplayPrice
	}
	return Resolve(p.Price, p.PromoPrice).DisplayPrice
}

func ForPack(pk models.Pack) Price {
	regular := Round(pk.OriginalPrice)
	display := Round(pk.DiscountPrice)
	if display <= 0 {
		display = regular
	}
	if regular < display {
		regular = display
	}
	percent := pk.DiscountPercentage
	if percent <= 0 {
		percent = DiscountPercent(regular, display)
	}
	return Price{DisplayPrice: display, RegularPrice: regular, DiscountPercent: percent}
}

// PackOriginalPrice is the undiscounted sum of the pack contents.
func PackOriginalPrice(items []models.PackItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item.UnitPrice, item.Quantity))
	}
	return Round(total.InexactFloat64())
}

var (
	ErrPackDiscountMissing = errors.New("discountPrice or discountPercentage is required")
	ErrPackDiscountPrice   = errors.New("discountPrice must be greater than 0 and not above the original price")
	ErrPackDiscountPercent = errors.New("discountPercentage must be between 0 and 99")
)

// PackDiscount derives the missing half of (discountPrice, discountPercentage).
// An explicit price wins over a percentage.
func PackDiscount(original float64, discountPrice *float64, percentage *int) (float64, int, error) {
	if discountPrice != nil {
		if *discountPrice <= 0 || *discountPrice > original {
			return 0, 0, ErrPackDiscountPrice
		}
		price := Round(*discountPrice)
		return price, DiscountPercent(original, price), nil
	}
	if percentage != nil {
		if *percentage < 0 || *percentage > 99 {
			return 0, 0, ErrPackDiscountPercent
		}
		factor := decimal.NewFromInt(int64(100 - *percentage)).Div(hundred)
		price := decimal.NewFromFloat(original).Mul(factor)
		return Round(price.InexactFloat64()), *percentage, nil
	}
	return 0, 0, ErrPackDiscountMissing
}

func LineTotal(unit float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(quantity)))
}

// Round rounds a money amount to cents.
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}
