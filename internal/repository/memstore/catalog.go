package memstore

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type categoryRepo struct{ s *Store }

func sortCategories(categories []models.Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}

func (r categoryRepo) List(_ context.Context, activeOnly bool) ([]models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, clone(c))
	}
	sortCategories(out)
	return out, nil
}

func (r categoryRepo) Children(_ context.Context, parent primitive.ObjectID) ([]models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Category, 0)
	for _, c := range r.s.categories {
		if c.Parent != nil && *c.Parent == parent {
			out = append(out, clone(c))
		}
	}
	sortCategories(out)
	return out, nil
}

func (r categoryRepo) Get(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(c)
	return &out, nil
}

func (r categoryRepo) Create(ctx context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, exists := r.s.categories[c.ID]; exists {
		return repository.ErrDuplicate
	}
	id := c.ID
	r.s.categories[id] = clone(*c)
	r.s.record(ctx, func() { delete(r.s.categories, id) })
	return nil
}

func (r categoryRepo) Replace(ctx context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.categories[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	r.s.categories[c.ID] = clone(*c)
	r.s.record(ctx, func() { r.s.categories[previous.ID] = previous })
	return nil
}

func (r categoryRepo) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		previous, ok := r.s.categories[id]
		if !ok {
			continue
		}
		delete(r.s.categories, id)
		r.s.record(ctx, func() { r.s.categories[previous.ID] = previous })
		deleted++
	}
	return deleted, nil
}

type packRepo struct{ s *Store }

func (r packRepo) List(_ context.Context, f repository.PackFilter) ([]models.Pack, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Pack, 0)
	for _, p := range r.s.packs {
		if f.AvailableAt != nil && !p.IsAvailable(*f.AvailableAt) {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		out = append(out, clone(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r packRepo) Get(_ context.Context, id primitive.ObjectID) (*models.Pack, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.packs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(p)
	return &out, nil
}

func (r packRepo) Create(ctx context.Context, p *models.Pack) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, exists := r.s.packs[p.ID]; exists {
		return repository.ErrDuplicate
	}
	id := p.ID
	r.s.packs[id] = clone(*p)
	r.s.record(ctx, func() { delete(r.s.packs, id) })
	return nil
}

func (r packRepo) Replace(ctx context.Context, p *models.Pack) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.packs[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	r.s.packs[p.ID] = clone(*p)
	r.s.record(ctx, func() { r.s.packs[previous.ID] = previous })
	return nil
}

func (r packRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.packs[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.packs, id)
	r.s.record(ctx, func() { r.s.packs[id] = previous })
	return nil
}
