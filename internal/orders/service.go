// Package orders places orders against live stock and drives the order
// status machine.
package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repository"
)

// LineInput is one requested line: a product (optionally a variant, by id
// or by attribute set) or a pack.
type LineInput struct {
	Product   *primitive.ObjectID
	Pack      *primitive.ObjectID
	VariantID *primitive.ObjectID
	Variant   map[string]string
	Quantity  int
}

type PlaceOrderInput struct {
	User      *primitive.ObjectID
	GuestInfo *models.GuestInfo
	Items     []LineInput
	Notes     string
}

// reservation is a stock requirement produced by resolving a line.
type reservation struct {
	product   primitive.ObjectID
	variantID *primitive.ObjectID
	quantity  int
	available int
}

type Service struct {
	store    repository.Store
	shipping pricing.ShippingRule
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store repository.Store, shipping pricing.ShippingRule, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, shipping: shipping, logger: logger, now: time.Now}
}

func (s *Service) ShippingRule() pricing.ShippingRule {
	return s.shipping
}

func validateLines(items []LineInput) error {
	if len(items) == 0 {
		return ValidationError{Message: "at least one item is required"}
	}
	for _, item := range items {
		if (item.Product == nil) == (item.Pack == nil) {
			return ValidationError{Message: "each item needs exactly one of product or pack"}
		}
		if item.Quantity <= 0 {
			return ValidationError{Message: "quantity must be greater than zero"}
		}
	}
	return nil
}

// Place prices every line from stored data and reserves stock with
// conditional decrements inside one transaction. Any failing line aborts
// the whole order and leaves stock untouched.
func (s *Service) Place(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if err := validateLines(in.Items); err != nil {
		return nil, err
	}
	if in.User == nil && in.GuestInfo == nil {
		return nil, ValidationError{Message: "guestInfo is required for guest checkout"}
	}

	var order models.Order
	err := s.store.WithTransaction(ctx, func(txCtx context.Context) error {
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, line := range in.Items {
			item, reservations, err := s.resolveLine(txCtx, line)
			if err != nil {
				return err
			}
			for _, r := range reservations {
				if err := s.reserve(txCtx, r); err != nil {
					return err
				}
			}
			items = append(items, item)
		}

		totals := ComputeTotals(items, s.shipping)
		now := s.now()
		order = models.Order{
			User:         in.User,
			Items:        items,
			Subtotal:     totals.Subtotal,
			ShippingCost: totals.ShippingCost,
			Total:        totals.Total,
			Status:       models.OrderStatusPending,
			Notes:        strings.TrimSpace(in.Notes),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if in.User == nil {
			order.GuestInfo = in.GuestInfo
		}
		return s.store.Orders().Create(txCtx, &order)
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("orderId", order.ID.Hex()),
		zap.Float64("total", order.Total),
		zap.Int("lines", len(order.Items)),
	}
	if order.User != nil {
		fields = append(fields, zap.String("userId", order.User.Hex()))
	} else {
		fields = append(fields, zap.Bool("guest", true))
	}
	s.logger.Info("order created", fields...)
	return &order, nil
}

func (s *Service) reserve(ctx context.Context, r reservation) error {
	stockErr := OutOfStockError{
		ProductID: r.product,
		VariantID: r.variantID,
		Available: r.available,
		Requested: r.quantity,
	}
	if r.available < r.quantity {
		return stockErr
	}
	err := s.store.Products().DecrementStock(ctx, r.product, r.variantID, r.quantity)
	if errors.Is(err, repository.ErrInsufficientStock) {
		return stockErr
	}
	return err
}

func (s *Service) loadProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.store.Products().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ProductNotFoundError{ProductID: id}
	}
	return product, nil
}

func (s *Service) resolveLine(ctx context.Context, line LineInput) (models.OrderItem, []reservation, error) {
	if line.Pack != nil {
		return s.resolvePack(ctx, *line.Pack, line.Quantity)
	}

	product, err := s.loadProduct(ctx, *line.Product)
	if err != nil {
		return models.OrderItem{}, nil, err
	}

	item := models.OrderItem{
		Product:  &product.ID,
		Name:     product.Name,
		Quantity: line.Quantity,
		Image:    product.FirstImage(),
	}

	if !product.HasVariants {
		if line.VariantID != nil || len(line.Variant) > 0 {
			return models.OrderItem{}, nil, ValidationError{Message: "product has no variants"}
		}
		item.Price = pricing.UnitPrice(*product, nil)
		return item, []reservation{{
			product:   product.ID,
			quantity:  line.Quantity,
			available: product.Stock,
		}}, nil
	}

	var (
		variant *models.Variant
		found   bool
	)
	switch {
	case line.VariantID != nil:
		variant, found = product.VariantByID(*line.VariantID)
	case len(line.Variant) > 0:
		variant, found = product.FindVariant(line.Variant)
	default:
		return models.OrderItem{}, nil, ValidationError{Message: "a variant must be selected for this product"}
	}
	if !found {
		return models.OrderItem{}, nil, ValidationError{Message: "selected variant does not exist"}
	}

	variantID := variant.ID
	item.Variant = variant.Attributes
	item.Price = pricing.UnitPrice(*product, variant)
	return item, []reservation{{
		product:   product.ID,
		variantID: &variantID,
		quantity:  line.Quantity,
		available: variant.Stock,
	}}, nil
}

// resolvePack prices a pack line at its discount price and expands it into
// one reservation per contained product.
func (s *Service) resolvePack(ctx context.Context, id primitive.ObjectID, quantity int) (models.OrderItem, []reservation, error) {
	pack, err := s.store.Packs().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.OrderItem{}, nil, PackNotFoundError{PackID: id}
	}
	if err != nil {
		return models.OrderItem{}, nil, err
	}
	if !pack.IsAvailable(s.now()) {
		return models.OrderItem{}, nil, PackNotFoundError{PackID: id}
	}

	reservations := make([]reservation, 0, len(pack.Products))
	for _, entry := range pack.Products {
		product, err := s.loadProduct(ctx, entry.Product)
		if err != nil {
			return models.OrderItem{}, nil, err
		}
		if product.HasVariants {
			return models.OrderItem{}, nil, ValidationError{Message: "pack contains a product with variants"}
		}
		reservations = append(reservations, reservation{
			product:   product.ID,
			quantity:  entry.Quantity * quantity,
			available: product.Stock,
		})
	}

	packID := pack.ID
	return models.OrderItem{
		Pack:     &packID,
		Name:     pack.Name,
		Quantity: quantity,
		Price:    pricing.ForPack(*pack).DisplayPrice,
		Image:    pack.Image,
	}, reservations, nil
}

// UpdateStatus applies a status transition with a compare-and-set on the
// status the decision was made against. Cancelling does not restock.
func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, to string) (*models.Order, error) {
	if !models.IsOrderStatus(to) {
		return nil, ValidationError{Message: "status must be one of Pending, Confirmed, Shipped, Delivered, Cancelled"}
	}
	current, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, to) {
		return nil, InvalidTransitionError{From: current.Status, To: to}
	}

	updated, err := s.store.Orders().UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated",
		zap.String("orderId", id.Hex()),
		zap.String("from", current.Status),
		zap.String("status", to),
	)
	return updated, nil
}
