package cart

import (
	"sync"

	"go.uber.org/zap"

	"storefront/internal/clientstate"
	"storefront/internal/models"
)

const snapshotVersion = 0

// Store is a cart instance backed by durable storage. Every mutation writes
// the full item list under clientstate.CartKey.
type Store struct {
	mu      sync.Mutex
	state   State
	storage clientstate.Storage
	logger  *zap.Logger
}

func NewStore(storage clientstate.Storage, logger *zap.Logger) (*Store, error) {
	if storage == nil {
		storage = clientstate.NewMemoryStorage()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{state: Clear(), storage: storage, logger: logger}
	if _, err := clientstate.LoadSnapshot(storage, clientstate.CartKey, &s.state); err != nil {
		return nil, err
	}
	if s.state.Items == nil {
		s.state.Items = []Item{}
	}
	return s, nil
}

func (s *Store) apply(next State) error {
	s.state = next
	if err := clientstate.SaveSnapshot(s.storage, clientstate.CartKey, snapshotVersion, s.state); err != nil {
		s.logger.Warn("cart persist failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *Store) AddToCart(p models.Product, quantity int, variant *models.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(AddProduct(s.state, p, quantity, variant))
}

func (s *Store) AddPackToCart(pk models.Pack, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(AddPack(s.state, pk, quantity))
}

func (s *Store) RemoveFromCart(id string, t ItemType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(Remove(s.state, id, t))
}

func (s *Store) UpdateQuantity(id string, quantity int, t ItemType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(UpdateQuantity(s.state, id, quantity, t))
}

func (s *Store) ClearCart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(Clear())
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) Items() []Item {
	return s.State().Items
}

func (s *Store) GetTotalItems() int {
	return s.State().TotalItems()
}

func (s *Store) GetTotalPrice() float64 {
	return s.State().TotalPrice()
}
