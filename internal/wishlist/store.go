// Package wishlist keeps saved products, persisted under wishlist-storage.
package wishlist

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/clientstate"
	"storefront/internal/models"
)

type State struct {
	Items []models.Product `json:"items"`
}

func (s State) index(id primitive.ObjectID) int {
	for i, p := range s.Items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

type Store struct {
	mu      sync.Mutex
	state   State
	storage clientstate.Storage
}

func NewStore(storage clientstate.Storage) (*Store, error) {
	if storage == nil {
		storage = clientstate.NewMemoryStorage()
	}
	s := &Store{state: State{Items: []models.Product{}}, storage: storage}
	if _, err := clientstate.LoadSnapshot(storage, clientstate.WishlistKey, &s.state); err != nil {
		return nil, err
	}
	if s.state.Items == nil {
		s.state.Items = []models.Product{}
	}
	return s, nil
}

func (s *Store) persist() error {
	return clientstate.SaveSnapshot(s.storage, clientstate.WishlistKey, 0, s.state)
}

// Add is a no-op when the product is already saved.
func (s *Store) Add(p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.index(p.ID) >= 0 {
		return nil
	}
	s.state.Items = append(s.state.Items, p)
	return s.persist()
}

func (s *Store) Remove(id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.index(id)
	if i < 0 {
		return nil
	}
	s.state.Items = append(s.state.Items[:i:i], s.state.Items[i+1:]...)
	return s.persist()
}

// Toggle adds or removes the product and reports whether it is now saved.
func (s *Store) Toggle(p models.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.state.index(p.ID); i >= 0 {
		s.state.Items = append(s.state.Items[:i:i], s.state.Items[i+1:]...)
		return false, s.persist()
	}
	s.state.Items = append(s.state.Items, p)
	return true, s.persist()
}

func (s *Store) Has(id primitive.ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.index(id) >= 0
}

func (s *Store) Items() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.state.Items...)
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Items = []models.Product{}
	return s.persist()
}
