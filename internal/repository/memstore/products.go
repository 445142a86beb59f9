package memstore

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type productRepo struct{ s *Store }

func matchesProduct(p models.Product, f repository.ProductFilter) bool {
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if len(f.Categories) > 0 {
		if p.Category == nil {
			return false
		}
		found := false
		for _, c := range f.Categories {
			if c == *p.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" && !p.Name.Matches(f.Search) && !p.Description.Matches(f.Search) {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.MinPrice != nil && p.DisplayPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.DisplayPrice > *f.MaxPrice {
		return false
	}
	if f.Exclude != nil && p.ID == *f.Exclude {
		return false
	}
	return true
}

func sortProducts(products []models.Product, order string) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch order {
		case repository.SortPriceAsc:
			if a.DisplayPrice != b.DisplayPrice {
				return a.DisplayPrice < b.DisplayPrice
			}
			return a.ID.Hex() < b.ID.Hex()
		case repository.SortPriceDesc:
			if a.DisplayPrice != b.DisplayPrice {
				return a.DisplayPrice > b.DisplayPrice
			}
			return a.ID.Hex() < b.ID.Hex()
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID.Hex() > b.ID.Hex()
		}
	})
}

func (r productRepo) List(_ context.Context, f repository.ProductFilter) ([]models.Product, int64, error) {
	r.s.mu.RLock()
	matched := make([]models.Product, 0)
	for _, p := range r.s.products {
		if matchesProduct(p, f) {
			matched = append(matched, clone(p))
		}
	}
	r.s.mu.RUnlock()

	sortProducts(matched, f.Sort)
	total := int64(len(matched))

	if skip, limit := f.Paginate(); limit > 0 {
		if skip >= total {
			matched = matched[:0]
		} else {
			end := skip + limit
			if end > total {
				end = total
			}
			matched = matched[skip:end]
		}
	}
	for i := range matched {
		matched[i] = matched[i].WithDerived()
	}
	return matched, total, nil
}

func (r productRepo) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(p).WithDerived()
	return &out, nil
}

func (r productRepo) Create(ctx context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, exists := r.s.products[p.ID]; exists {
		return repository.ErrDuplicate
	}
	for i := range p.Variants {
		if p.Variants[i].ID.IsZero() {
			p.Variants[i].ID = primitive.NewObjectID()
		}
	}
	id := p.ID
	r.s.products[id] = clone(*p)
	r.s.record(ctx, func() { delete(r.s.products, id) })
	*p = p.WithDerived()
	return nil
}

func (r productRepo) Replace(ctx context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.products[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range p.Variants {
		if p.Variants[i].ID.IsZero() {
			p.Variants[i].ID = primitive.NewObjectID()
		}
	}
	r.s.products[p.ID] = clone(*p)
	r.s.record(ctx, func() { r.s.products[previous.ID] = previous })
	*p = p.WithDerived()
	return nil
}

func (r productRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	r.s.record(ctx, func() { r.s.products[id] = previous })
	return nil
}

func (r productRepo) DecrementStock(ctx context.Context, id primitive.ObjectID, variantID *primitive.ObjectID, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrInsufficientStock
	}
	if variantID == nil {
		if p.Stock < quantity {
			return repository.ErrInsufficientStock
		}
		p.Stock -= quantity
		p.UpdatedAt = time.Now()
		r.s.products[id] = p
		r.s.record(ctx, func() { r.restock(id, nil, quantity) })
		return nil
	}

	variants := make([]models.Variant, len(p.Variants))
	copy(variants, p.Variants)
	for i := range variants {
		if variants[i].ID != *variantID {
			continue
		}
		if variants[i].Stock < quantity {
			return repository.ErrInsufficientStock
		}
		variants[i].Stock -= quantity
		p.Variants = variants
		p.UpdatedAt = time.Now()
		r.s.products[id] = p
		vid := *variantID
		r.s.record(ctx, func() { r.restock(id, &vid, quantity) })
		return nil
	}
	return repository.ErrInsufficientStock
}

// restock reverses a decrement. Callers must hold s.mu.
func (r productRepo) restock(id primitive.ObjectID, variantID *primitive.ObjectID, quantity int) {
	p, ok := r.s.products[id]
	if !ok {
		return
	}
	if variantID == nil {
		p.Stock += quantity
	} else {
		variants := make([]models.Variant, len(p.Variants))
		copy(variants, p.Variants)
		for i := range variants {
			if variants[i].ID == *variantID {
				variants[i].Stock += quantity
			}
		}
		p.Variants = variants
	}
	r.s.products[id] = p
}

func (r productRepo) SetStock(ctx context.Context, id primitive.ObjectID, variantID *primitive.ObjectID, stock int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p := clone(previous)
	if variantID == nil {
		p.Stock = stock
	} else {
		v, found := p.VariantByID(*variantID)
		if !found {
			return repository.ErrNotFound
		}
		v.Stock = stock
	}
	p.UpdatedAt = time.Now()
	r.s.products[id] = p
	r.s.record(ctx, func() { r.s.products[id] = previous })
	return nil
}

func (r productRepo) ReassignCategory(ctx context.Context, from []primitive.ObjectID, target *primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sources := make(map[primitive.ObjectID]struct{}, len(from))
	for _, id := range from {
		sources[id] = struct{}{}
	}

	var modified int64
	for id, p := range r.s.products {
		if p.Category == nil {
			continue
		}
		if _, ok := sources[*p.Category]; !ok {
			continue
		}
		previous := p
		if target != nil {
			t := *target
			p.Category = &t
		} else {
			p.Category = nil
		}
		p.UpdatedAt = time.Now()
		r.s.products[id] = p
		pid := id
		r.s.record(ctx, func() { r.s.products[pid] = previous })
		modified++
	}
	return modified, nil
}
