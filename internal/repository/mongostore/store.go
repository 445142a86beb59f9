// Package mongostore implements the repository contracts on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront/internal/repository"
)

const (
	productsCollection      = "products"
	categoriesCollection    = "categories"
	packsCollection         = "packs"
	ordersCollection        = "orders"
	usersCollection         = "users"
	refreshTokensCollection = "refresh_tokens"

	opTimeout = 5 * time.Second
)

type Store struct {
	client        *mongo.Client
	db            *mongo.Database
	products      *productRepo
	categories    *categoryRepo
	packs         *packRepo
	orders        *orderRepo
	users         *userRepo
	refreshTokens *refreshTokenRepo
}

var _ repository.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		client:        db.Client(),
		db:            db,
		products:      &productRepo{coll: db.Collection(productsCollection)},
		categories:    &categoryRepo{coll: db.Collection(categoriesCollection)},
		packs:         &packRepo{coll: db.Collection(packsCollection)},
		orders:        &orderRepo{coll: db.Collection(ordersCollection)},
		users:         &userRepo{coll: db.Collection(usersCollection)},
		refreshTokens: &refreshTokenRepo{coll: db.Collection(refreshTokensCollection)},
	}
}

func (s *Store) Products() repository.Products           { return s.products }
func (s *Store) Categories() repository.Categories       { return s.categories }
func (s *Store) Packs() repository.Packs                 { return s.packs }
func (s *Store) Orders() repository.Orders               { return s.orders }
func (s *Store) Users() repository.Users                 { return s.users }
func (s *Store) RefreshTokens() repository.RefreshTokens { return s.refreshTokens }

// WithTransaction needs a replica set. The driver may retry fn on transient
// errors, so fn must rebuild its state on every call.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(checkCtx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
