package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PackItem snapshots the product name and unit price when the pack is saved.
type PackItem struct {
	Product   primitive.ObjectID `bson:"product" json:"product"`
	Name      LocalizedText      `bson:"name" json:"name"`
	UnitPrice float64            `bson:"unitPrice" json:"unitPrice"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

type Pack struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               LocalizedText      `bson:"name" json:"name"`
	Description        LocalizedText      `bson:"description" json:"description"`
	Image              string             `bson:"image,omitempty" json:"image,omitempty"`
	Products           []PackItem         `bson:"products" json:"products"`
	OriginalPrice      float64            `bson:"originalPrice" json:"originalPrice"`
	DiscountPrice      float64            `bson:"discountPrice" json:"discountPrice"`
	DiscountPercentage int                `bson:"discountPercentage" json:"discountPercentage"`
	Active             bool               `bson:"active" json:"active"`
	StartDate          *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate            *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Featured           bool               `bson:"featured" json:"featured"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsAvailable reports whether the pack is active and inside its validity window.
func (p Pack) IsAvailable(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}
	return true
}

// Clone copies the product sub-list so callers cannot alias the original.
func (p Pack) Clone() Pack {
	items := make([]PackItem, len(p.Products))
	copy(items, p.Products)
	p.Products = items
	return p
}
