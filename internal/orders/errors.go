package orders

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

type ProductNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e ProductNotFoundError) Error() string {
	return "product not found"
}

type PackNotFoundError struct {
	PackID primitive.ObjectID
}

func (e PackNotFoundError) Error() string {
	return "pack not found"
}

type OutOfStockError struct {
	ProductID primitive.ObjectID
	VariantID *primitive.ObjectID
	Available int
	Requested int
}

func (e OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}
