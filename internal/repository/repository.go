// Package repository declares the persistence contracts the handlers and
// services depend on. mongostore is the production implementation;
// memstore backs local development and tests.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrDuplicate         = errors.New("duplicate")
)

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

type ProductFilter struct {
	Categories []primitive.ObjectID
	Search     string
	ActiveOnly bool
	Featured   *bool
	MinPrice   *float64
	MaxPrice   *float64
	Exclude    *primitive.ObjectID
	Sort       string
	Page       int64
	Limit      int64
}

type Products interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Replace(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DecrementStock removes quantity only if at least quantity is in stock,
	// returning ErrInsufficientStock otherwise. variantID selects a variant's stock.
	DecrementStock(ctx context.Context, id primitive.ObjectID, variantID *primitive.ObjectID, quantity int) error
	SetStock(ctx context.Context, id primitive.ObjectID, variantID *primitive.ObjectID, stock int) error
	// ReassignCategory moves products from any of the given categories to
	// target, or unsets their category when target is nil.
	ReassignCategory(ctx context.Context, from []primitive.ObjectID, target *primitive.ObjectID) (int64, error)
}

type Categories interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Replace(ctx context.Context, c *models.Category) error
	Children(ctx context.Context, parent primitive.ObjectID) ([]models.Category, error)
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type PackFilter struct {
	AvailableAt *time.Time
	Featured    *bool
}

type Packs interface {
	List(ctx context.Context, filter PackFilter) ([]models.Pack, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Pack, error)
	Create(ctx context.Context, p *models.Pack) error
	Replace(ctx context.Context, p *models.Pack) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OrderFilter struct {
	User      *primitive.ObjectID
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

type Orders interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// UpdateStatus sets status to `to` only while it still equals `from`;
	// a lost race yields ErrConflict.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to string) (*models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Users interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type RefreshTokens interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	FindActive(ctx context.Context, hash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error
	RevokeByHash(ctx context.Context, hash string) (bool, error)
}

type Store interface {
	Products() Products
	Categories() Categories
	Packs() Packs
	Orders() Orders
	Users() Users
	RefreshTokens() RefreshTokens
	// WithTransaction runs fn atomically; repository calls made with the
	// context passed to fn join the transaction and are undone if fn fails.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Paginate normalises page/limit; a zero limit means no pagination.
func (f ProductFilter) Paginate() (skip, limit int64) {
	if f.Limit <= 0 {
		return 0, 0
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit, f.Limit
}
