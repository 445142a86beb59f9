package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending   = "Pending"
	OrderStatusConfirmed = "Confirmed"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func IsOrderStatus(value string) bool {
	for _, s := range OrderStatuses {
		if s == value {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot taken at purchase time; it does not follow later
// product edits.
type OrderItem struct {
	Product  *primitive.ObjectID `bson:"product,omitempty" json:"product,omitempty"`
	Pack     *primitive.ObjectID `bson:"pack,omitempty" json:"pack,omitempty"`
	Variant  map[string]string   `bson:"variant,omitempty" json:"variant,omitempty"`
	Name     LocalizedText       `bson:"name" json:"name"`
	Quantity int                 `bson:"quantity" json:"quantity"`
	Price    float64             `bson:"price" json:"price"`
	Image    string              `bson:"image,omitempty" json:"image,omitempty"`
}

type GuestInfo struct {
	Name    string `bson:"name" json:"name" binding:"required"`
	Email   string `bson:"email" json:"email" binding:"required,email"`
	Phone   string `bson:"phone" json:"phone" binding:"required"`
	Address string `bson:"address" json:"address" binding:"required"`
}

type Order struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User         *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	GuestInfo    *GuestInfo          `bson:"guestInfo,omitempty" json:"guestInfo,omitempty"`
	Items        []OrderItem         `bson:"items" json:"items"`
	Subtotal     float64             `bson:"subtotal" json:"subtotal"`
	ShippingCost float64             `bson:"shippingCost" json:"shippingCost"`
	Total        float64             `bson:"total" json:"total"`
	Status       string              `bson:"status" json:"status"`
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (o Order) IsGuest() bool {
	return o.User == nil
}
