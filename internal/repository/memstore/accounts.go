package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type orderRepo struct{ s *Store }

func (r orderRepo) Create(ctx context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if _, exists := r.s.orders[o.ID]; exists {
		return repository.ErrDuplicate
	}
	id := o.ID
	r.s.orders[id] = clone(*o)
	r.s.record(ctx, func() { delete(r.s.orders, id) })
	return nil
}

func (r orderRepo) Get(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(o)
	return &out, nil
}

func (r orderRepo) List(_ context.Context, f repository.OrderFilter) ([]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Order, 0)
	for _, o := range r.s.orders {
		if f.User != nil && (o.User == nil || *o.User != *f.User) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.StartDate != nil && o.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && o.CreatedAt.After(*f.EndDate) {
			continue
		}
		out = append(out, clone(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r orderRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if previous.Status != from {
		return nil, repository.ErrConflict
	}
	o := clone(previous)
	o.Status = to
	o.UpdatedAt = time.Now()
	r.s.orders[id] = o
	r.s.record(ctx, func() { r.s.orders[id] = previous })

	out := clone(o)
	return &out, nil
}

func (r orderRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.orders, id)
	r.s.record(ctx, func() { r.s.orders[id] = previous })
	return nil
}

type userRepo struct{ s *Store }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u.Email = normalizeEmail(u.Email)
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	id := u.ID
	r.s.users[id] = clone(*u)
	r.s.record(ctx, func() { delete(r.s.users, id) })
	return nil
}

func (r userRepo) Get(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(u)
	return &out, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = normalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			out := clone(u)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) List(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, clone(u))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r userRepo) UpdateRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := clone(previous)
	u.Role = role
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	r.s.record(ctx, func() { r.s.users[id] = previous })

	out := clone(u)
	return &out, nil
}

func (r userRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	r.s.record(ctx, func() { r.s.users[id] = previous })
	return nil
}

type refreshTokenRepo struct{ s *Store }

func (r refreshTokenRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	id := t.ID
	r.s.refreshTokens[id] = clone(*t)
	r.s.record(ctx, func() { delete(r.s.refreshTokens, id) })
	return nil
}

func (r refreshTokenRepo) FindActive(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.refreshTokens {
		if t.TokenHash == hash && !t.Revoked {
			out := clone(t)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r refreshTokenRepo) Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, ok := r.s.refreshTokens[id]
	if !ok || previous.Revoked {
		return repository.ErrNotFound
	}
	t := previous
	t.Revoked = true
	if replacedBy != nil {
		next := *replacedBy
		t.ReplacedByToken = &next
	}
	r.s.refreshTokens[id] = t
	r.s.record(ctx, func() { r.s.refreshTokens[id] = previous })
	return nil
}

func (r refreshTokenRepo) RevokeByHash(ctx context.Context, hash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, t := range r.s.refreshTokens {
		if t.TokenHash != hash || t.Revoked {
			continue
		}
		previous := t
		t.Revoked = true
		r.s.refreshTokens[id] = t
		tokenID := id
		r.s.record(ctx, func() { r.s.refreshTokens[tokenID] = previous })
		return true, nil
	}
	return false, nil
}
