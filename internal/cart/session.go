package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/craft_store/internal/models"
)

// Session is the in-memory view of one caller's cart. It is created once per
// client session and passed to whatever needs the cart. Memory only changes
// after the store accepted the mutation.
type Session struct {
	store *Store

	mu       sync.Mutex
	identity Identity
	lines    []models.CartLine
}

func NewSession(ctx context.Context, store *Store, id Identity) (*Session, error) {
	lines, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Session{store: store, identity: id, lines: lines}, nil
}

func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.lines)
}

func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.lines)
}

func (s *Session) Add(ctx context.Context, line models.CartLine) error {
	return s.apply(func(id Identity) ([]models.CartLine, error) { return s.store.Add(ctx, id, line) })
}

func (s *Session) Increment(ctx context.Context, key LineKey) error {
	return s.apply(func(id Identity) ([]models.CartLine, error) { return s.store.Increment(ctx, id, key) })
}

func (s *Session) Decrement(ctx context.Context, key LineKey) error {
	return s.apply(func(id Identity) ([]models.CartLine, error) { return s.store.Decrement(ctx, id, key) })
}

func (s *Session) Remove(ctx context.Context, key LineKey) error {
	return s.apply(func(id Identity) ([]models.CartLine, error) { return s.store.Remove(ctx, id, key) })
}

func (s *Session) Clear(ctx context.Context) error {
	return s.apply(func(id Identity) ([]models.CartLine, error) {
		return []models.CartLine{}, s.store.Clear(ctx, id)
	})
}

// SwitchIdentity handles login and logout. A guest bucket is discarded when
// its owner leaves it; a guest target always starts empty. Memory is replaced
// only once every store call succeeded.
func (s *Session) SwitchIdentity(ctx context.Context, next Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next.Key() == s.identity.Key() {
		return nil
	}

	lines := []models.CartLine{}
	if next.IsGuest() {
		if err := s.store.Clear(ctx, next); err != nil {
			return err
		}
	} else {
		loaded, err := s.store.Get(ctx, next)
		if err != nil {
			return err
		}
		lines = loaded
	}

	if s.identity.IsGuest() {
		if err := s.store.Clear(ctx, s.identity); err != nil {
			return err
		}
	}

	s.identity = next
	s.lines = lines
	return nil
}

func (s *Session) apply(fn func(Identity) ([]models.CartLine, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := fn(s.identity)
	if err != nil {
		return err
	}
	s.lines = lines
	return nil
}
