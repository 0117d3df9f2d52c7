package stock

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/repo"
)

var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("concurrent stock update")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	ReasonReserve = "reserve"
	ReasonRelease = "release"
)

type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Ledger is the only writer of products.stock_quantity. Reserve decrements,
// Release increments; both are recorded in stock_movements under the caller's
// idempotency key and guarded by the product version.
type Ledger struct {
	Repo *repo.GormRepo
}

func NewLedger(r *repo.GormRepo) *Ledger {
	return &Ledger{Repo: r}
}

// WithRepo returns a ledger bound to r, typically a transaction.
func (l *Ledger) WithRepo(r *repo.GormRepo) *Ledger {
	return &Ledger{Repo: r}
}

func (l *Ledger) CurrentStock(ctx context.Context, productID uint) (int, error) {
	p, err := l.product(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.StockQuantity, nil
}

func (l *Ledger) Reserve(ctx context.Context, productID uint, qty int, key string) error {
	return l.apply(ctx, productID, -qty, qty, key, ReasonReserve)
}

func (l *Ledger) Release(ctx context.Context, productID uint, qty int, key string) error {
	return l.apply(ctx, productID, qty, qty, key, ReasonRelease)
}

// Recorded reports whether a movement with key was already applied.
func (l *Ledger) Recorded(ctx context.Context, key string) (bool, error) {
	return l.Repo.MovementExists(ctx, key)
}

func (l *Ledger) apply(ctx context.Context, productID uint, delta, qty int, key, reason string) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}
	if key == "" {
		return fmt.Errorf("idempotency key required: %w", ErrValidation)
	}

	return l.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		done, err := tx.MovementExists(ctx, key)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		p, err := (&Ledger{Repo: tx}).product(ctx, productID)
		if err != nil {
			return err
		}

		next := p.StockQuantity + delta
		if next < 0 {
			return &InsufficientStockError{ProductID: productID, Requested: qty, Available: p.StockQuantity}
		}

		if err := tx.UpdateStock(ctx, productID, next, p.Version); err != nil {
			if errors.Is(err, repo.ErrStaleVersion) {
				return fmt.Errorf("product %d: %w", productID, ErrConflict)
			}
			return err
		}

		return tx.RecordMovement(ctx, &models.StockMovement{
			Key:       key,
			ProductID: productID,
			Delta:     delta,
			Reason:    reason,
		})
	})
}

func (l *Ledger) product(ctx context.Context, productID uint) (*models.Product, error) {
	p, err := l.Repo.GetProduct(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
