package order

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/repo"
	"github.com/Skotchmaster/craft_store/internal/stock"
)

// Restock maps product id to the quantity put back on the shelf.
type Restock map[uint]int

func (r Restock) Total() int {
	n := 0
	for _, q := range r {
		n += q
	}
	return n
}

// Reconciler returns the stock consumed by an order. Each line item is
// released under its own key, so a second run restores nothing.
type Reconciler struct {
	Ledger *stock.Ledger
}

func ReleaseKey(orderID fmt.Stringer, lineItemID uint) string {
	return fmt.Sprintf("annul:%s:%d", orderID, lineItemID)
}

// Reconcile must run inside the transaction that writes the annulment.
func (r *Reconciler) Reconcile(ctx context.Context, tx *repo.GormRepo, o *models.Order) (Restock, error) {
	items, err := tx.ListOrderLineItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}

	ledger := r.Ledger.WithRepo(tx)
	restored := Restock{}
	for _, it := range items {
		key := ReleaseKey(o.ID, it.ID)
		done, err := ledger.Recorded(ctx, key)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}
		if err := ledger.Release(ctx, it.ProductID, it.Quantity, key); err != nil {
			return nil, fmt.Errorf("release product %d: %w", it.ProductID, err)
		}
		restored[it.ProductID] += it.Quantity
	}
	return restored, nil
}
