package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/craft_store/internal/events"
	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/repo"
	"github.com/Skotchmaster/craft_store/internal/stock"
)

// StockReader bounds cart quantities by live stock.
type StockReader interface {
	CurrentStock(ctx context.Context, productID uint) (int, error)
}

// Store keeps one persisted snapshot per identity. Every mutation loads the
// snapshot, applies the change to a copy and writes the whole snapshot back,
// so a failed write leaves the stored cart as it was.
type Store struct {
	Repo      *repo.GormRepo
	Stock     StockReader
	Publisher events.Publisher

	locks keyedMutex
}

func NewStore(r *repo.GormRepo, s StockReader, p events.Publisher) *Store {
	return &Store{Repo: r, Stock: s, Publisher: p}
}

func (s *Store) Get(ctx context.Context, id Identity) ([]models.CartLine, error) {
	return s.Repo.LoadCart(ctx, id.Key())
}

// Add merges line into the cart. The product's quantity across all variants
// must not exceed stock; on rejection the cart is left untouched.
func (s *Store) Add(ctx context.Context, id Identity, line models.CartLine) ([]models.CartLine, error) {
	if line.ProductID == 0 {
		return nil, fmt.Errorf("product_id required: %w", ErrValidation)
	}
	if !line.Variant.Valid() {
		return nil, fmt.Errorf("unknown variant %q: %w", line.Variant, ErrValidation)
	}
	if line.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}

	product, err := s.Repo.GetProduct(ctx, line.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, fmt.Errorf("product %d is not for sale: %w", line.ProductID, ErrValidation)
	}

	return s.mutate(ctx, id, func(lines []models.CartLine) ([]models.CartLine, error) {
		if err := s.checkCeiling(ctx, line.ProductID, productQuantity(lines, line.ProductID)+line.Quantity); err != nil {
			return nil, err
		}

		if i := indexOf(lines, KeyOf(line)); i >= 0 {
			lines[i].Quantity += line.Quantity
			if line.CustomizationNote != "" {
				lines[i].CustomizationNote = line.CustomizationNote
			}
			return lines, nil
		}

		line.UnitPrice = product.Price
		return append(lines, line), nil
	})
}

func (s *Store) Increment(ctx context.Context, id Identity, key LineKey) ([]models.CartLine, error) {
	return s.mutate(ctx, id, func(lines []models.CartLine) ([]models.CartLine, error) {
		i := indexOf(lines, key)
		if i < 0 {
			return nil, fmt.Errorf("line %d/%s: %w", key.ProductID, key.Variant, ErrNotFound)
		}
		if err := s.checkCeiling(ctx, key.ProductID, productQuantity(lines, key.ProductID)+1); err != nil {
			return nil, err
		}
		lines[i].Quantity++
		return lines, nil
	})
}

// Decrement never drops a line below one; use Remove to delete it.
func (s *Store) Decrement(ctx context.Context, id Identity, key LineKey) ([]models.CartLine, error) {
	return s.mutate(ctx, id, func(lines []models.CartLine) ([]models.CartLine, error) {
		i := indexOf(lines, key)
		if i < 0 {
			return nil, fmt.Errorf("line %d/%s: %w", key.ProductID, key.Variant, ErrNotFound)
		}
		if lines[i].Quantity > 1 {
			lines[i].Quantity--
		}
		return lines, nil
	})
}

func (s *Store) Remove(ctx context.Context, id Identity, key LineKey) ([]models.CartLine, error) {
	return s.mutate(ctx, id, func(lines []models.CartLine) ([]models.CartLine, error) {
		if i := indexOf(lines, key); i >= 0 {
			lines = append(lines[:i], lines[i+1:]...)
		}
		return lines, nil
	})
}

func (s *Store) Clear(ctx context.Context, id Identity) error {
	unlock := s.locks.Lock(id.Key())
	defer unlock()

	if err := s.Repo.DeleteCart(ctx, id.Key()); err != nil {
		return err
	}
	s.publish(ctx, id, nil)
	return nil
}

// Checkout hands the cart lines to fn inside one transaction and deletes the
// snapshot in the same transaction once fn succeeds.
func (s *Store) Checkout(ctx context.Context, id Identity, fn func(tx *repo.GormRepo, lines []models.CartLine) error) error {
	unlock := s.locks.Lock(id.Key())
	defer unlock()

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		lines, err := tx.LoadCart(ctx, id.Key())
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		if err := fn(tx, lines); err != nil {
			return err
		}
		return tx.DeleteCart(ctx, id.Key())
	})
	if err != nil {
		return err
	}

	s.publish(ctx, id, nil)
	return nil
}

func (s *Store) mutate(ctx context.Context, id Identity, fn func([]models.CartLine) ([]models.CartLine, error)) ([]models.CartLine, error) {
	unlock := s.locks.Lock(id.Key())
	defer unlock()

	current, err := s.Repo.LoadCart(ctx, id.Key())
	if err != nil {
		return nil, err
	}

	next, err := fn(clone(current))
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SaveCart(ctx, id.Key(), next); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.publish(ctx, id, next)
	return next, nil
}

// productQuantity sums every variant of a product; all of them draw on the
// same stock.
func productQuantity(lines []models.CartLine, productID uint) int {
	n := 0
	for _, l := range lines {
		if l.ProductID == productID {
			n += l.Quantity
		}
	}
	return n
}

func (s *Store) checkCeiling(ctx context.Context, productID uint, want int) error {
	available, err := s.Stock.CurrentStock(ctx, productID)
	if errors.Is(err, stock.ErrNotFound) {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if want > available {
		return &stock.InsufficientStockError{ProductID: productID, Requested: want, Available: available}
	}
	return nil
}

func (s *Store) publish(ctx context.Context, id Identity, lines []models.CartLine) {
	events.Publish(ctx, s.Publisher, events.TopicCarts, id.Key(), events.CartUpdated, map[string]any{
		"key":   id.Key(),
		"lines": len(lines),
		"total": Total(lines).StringFixed(2),
	})
}
