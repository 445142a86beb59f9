package models

import (
	"net/url"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VariantAttribute is one configurable option axis, e.g. Color or Size.
type VariantAttribute struct {
	Name   string   `bson:"name" json:"name"`
	Values []string `bson:"values" json:"values"`
}

type Variant struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Attributes map[string]string  `bson:"attributes" json:"attributes"`
	Price      float64            `bson:"price" json:"price"`
	PromoPrice *float64           `bson:"promoPrice,omitempty" json:"promoPrice,omitempty"`
	Stock      int                `bson:"stock" json:"stock"`
}

// Key is a canonical, order independent form of the attribute set.
func (v Variant) Key() string {
	return AttributeKey(v.Attributes)
}

func (v Variant) Matches(attrs map[string]string) bool {
	return SameAttributes(v.Attributes, attrs)
}

type Product struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name              LocalizedText       `bson:"name" json:"name"`
	Description       LocalizedText       `bson:"description" json:"description"`
	Price             float64             `bson:"price" json:"price"`
	PromoPrice        *float64            `bson:"promoPrice,omitempty" json:"promoPrice,omitempty"`
	DisplayPrice      float64             `bson:"displayPrice" json:"displayPrice"` // denormalized for price filters and sorting
	Category          *primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	Images            []string            `bson:"images" json:"images"`
	Stock             int                 `bson:"stock" json:"stock"`
	InStock           bool                `bson:"-" json:"inStock"`
	HasVariants       bool                `bson:"hasVariants" json:"hasVariants"`
	VariantAttributes []VariantAttribute  `bson:"variantAttributes,omitempty" json:"variantAttributes,omitempty"`
	Variants          []Variant           `bson:"variants,omitempty" json:"variants,omitempty"`
	Featured          bool                `bson:"featured" json:"featured"`
	IsActive          bool                `bson:"isActive" json:"isActive"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// TotalStock is the sellable quantity; per-variant stock governs variant products.
func (p Product) TotalStock() int {
	if !p.HasVariants {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// WithDerived fills the JSON-only fields.
func (p Product) WithDerived() Product {
	p.InStock = p.TotalStock() > 0
	return p
}

func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) FindVariant(attrs map[string]string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].Matches(attrs) {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

func (p Product) VariantByID(id primitive.ObjectID) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// SameAttributes reports an exact key/value match with the same attribute count.
func SameAttributes(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || other != v {
			return false
		}
	}
	return true
}

func AttributeKey(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := url.Values{}
	for _, k := range keys {
		values.Set(k, attrs[k])
	}
	return values.Encode()
}
