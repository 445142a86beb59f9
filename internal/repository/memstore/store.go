// Package memstore is an in-process implementation of the repository
// contracts. It backs DB_DRIVER=memory and the test suites.
package memstore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type txKey struct{}

// tx collects compensations for writes made inside WithTransaction.
type tx struct {
	undo []func()
}

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	products      map[primitive.ObjectID]models.Product
	categories    map[primitive.ObjectID]models.Category
	packs         map[primitive.ObjectID]models.Pack
	orders        map[primitive.ObjectID]models.Order
	users         map[primitive.ObjectID]models.User
	refreshTokens map[primitive.ObjectID]models.RefreshToken
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products:      make(map[primitive.ObjectID]models.Product),
		categories:    make(map[primitive.ObjectID]models.Category),
		packs:         make(map[primitive.ObjectID]models.Pack),
		orders:        make(map[primitive.ObjectID]models.Order),
		users:         make(map[primitive.ObjectID]models.User),
		refreshTokens: make(map[primitive.ObjectID]models.RefreshToken),
	}
}

func (s *Store) Products() repository.Products           { return productRepo{s} }
func (s *Store) Categories() repository.Categories       { return categoryRepo{s} }
func (s *Store) Packs() repository.Packs                 { return packRepo{s} }
func (s *Store) Orders() repository.Orders               { return orderRepo{s} }
func (s *Store) Users() repository.Users                 { return userRepo{s} }
func (s *Store) RefreshTokens() repository.RefreshTokens { return refreshTokenRepo{s} }

// WithTransaction serialises transactions and rolls back every write made
// through the transaction context when fn fails. Nested calls join the
// outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*tx); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	t := &tx{}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		s.mu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	return nil
}

// record registers a compensation. Callers must hold s.mu.
func (s *Store) record(ctx context.Context, undo func()) {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		t.undo = append(t.undo, undo)
	}
}

// clone deep-copies a model through its BSON encoding so stored values
// never alias what callers hold.
func clone[T any](v T) T {
	var out T
	data, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	if err := bson.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return out
}
