package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/craft_store/internal/cart"
	"github.com/Skotchmaster/craft_store/internal/delivery"
	"github.com/Skotchmaster/craft_store/internal/events"
	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/repo"
	"github.com/Skotchmaster/craft_store/internal/stock"
	"github.com/Skotchmaster/craft_store/internal/util"
	"github.com/Skotchmaster/craft_store/pkg/logging"
)

// Indexer mirrors orders into the back-office search index.
type Indexer interface {
	IndexOrder(ctx context.Context, o *models.Order) error
}

type Lifecycle struct {
	Repo       *repo.GormRepo
	Ledger     *stock.Ledger
	Carts      *cart.Store
	Scheduler  *delivery.Scheduler
	Reconciler *Reconciler
	Clock      delivery.Clock
	Publisher  events.Publisher
	Indexer    Indexer

	TaxPercent     int
	DepositPercent int
}

type Options struct {
	Publisher      events.Publisher
	Indexer        Indexer
	TaxPercent     int
	DepositPercent int
	MinLeadDays    int
}

func NewLifecycle(r *repo.GormRepo, carts *cart.Store, opts Options) *Lifecycle {
	ledger := stock.NewLedger(r)
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	return &Lifecycle{
		Repo:           r,
		Ledger:         ledger,
		Carts:          carts,
		Scheduler:      delivery.NewScheduler(opts.MinLeadDays),
		Reconciler:     &Reconciler{Ledger: ledger},
		Clock:          r,
		Publisher:      opts.Publisher,
		Indexer:        opts.Indexer,
		TaxPercent:     opts.TaxPercent,
		DepositPercent: opts.DepositPercent,
	}
}

// View is an order plus the state derived from it.
type View struct {
	*models.Order
	Affordance Affordance           `json:"adjustment_affordance"`
	Adjustment decimal.Decimal      `json:"adjustment"`
	Next       []models.OrderStatus `json:"next_statuses"`
}

func ViewOf(o *models.Order) View {
	return View{Order: o, Affordance: AffordanceFor(o), Adjustment: Adjustment(o), Next: Next(o.Status)}
}

func (l *Lifecycle) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := l.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, err
}

// GetForCustomer hides orders owned by someone else behind ErrNotFound.
func (l *Lifecycle) GetForCustomer(ctx context.Context, id uuid.UUID, customerID string) (*models.Order, error) {
	o, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, nil
}

// List returns one page of orders, all customers when customerID is empty.
func (l *Lifecycle) List(ctx context.Context, customerID string, page, size int) (util.Page, []models.Order, error) {
	offset, limit := util.Calculate(page, size)
	total, orders, err := l.Repo.ListOrders(ctx, customerID, offset, limit)
	if err != nil {
		return util.Page{}, nil, err
	}
	return util.PageOf(offset, limit, total), orders, nil
}

// Transition moves an order along one edge of the lifecycle. Annulment
// restocks the order in the same transaction as the status write.
func (l *Lifecycle) Transition(ctx context.Context, id uuid.UUID, to models.OrderStatus) (*models.Order, error) {
	if to == models.OrderStatusAnnulled {
		o, _, err := l.Annul(ctx, id)
		return o, err
	}
	if !ValidStatus(to) {
		return nil, fmt.Errorf("unknown status %q: %w", to, ErrValidation)
	}

	var from models.OrderStatus
	o, err := l.update(ctx, id, func(_ *repo.GormRepo, o *models.Order) error {
		if !CanTransition(o.Status, to) {
			return fmt.Errorf("%s -> %s: %w", o.Status, to, ErrTransitionNotAllowed)
		}
		from = o.Status
		o.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, o, events.OrderStatusChanged, map[string]any{"order_id": o.ID, "from": from, "to": to})
	return o, nil
}

func (l *Lifecycle) Annul(ctx context.Context, id uuid.UUID) (*models.Order, Restock, error) {
	var (
		from     models.OrderStatus
		restored Restock
	)
	o, err := l.update(ctx, id, func(tx *repo.GormRepo, o *models.Order) error {
		if !CanTransition(o.Status, models.OrderStatusAnnulled) {
			return fmt.Errorf("%s -> %s: %w", o.Status, models.OrderStatusAnnulled, ErrTransitionNotAllowed)
		}
		r, err := l.Reconciler.Reconcile(ctx, tx, o)
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
		restored = r
		from = o.Status
		o.Status = models.OrderStatusAnnulled
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logging.FromContext(ctx).Info("order_annulled", "order_id", o.ID, "restored_units", restored.Total())
	l.publish(ctx, o, events.OrderStatusChanged, map[string]any{"order_id": o.ID, "from": from, "to": o.Status})
	l.publish(ctx, o, events.OrderAnnulled, map[string]any{"order_id": o.ID, "restock": restored})
	l.publishStock(ctx, events.StockReleased, o.ID, restored)
	return o, restored, nil
}

// Replay re-runs restocking for an annulled order. Line items already
// released are skipped.
func (l *Lifecycle) Replay(ctx context.Context, id uuid.UUID) (Restock, error) {
	var restored Restock
	err := l.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := l.lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if o.Status != models.OrderStatusAnnulled {
			return fmt.Errorf("order %s is %s, not annulled: %w", id, o.Status, ErrValidation)
		}
		restored, err = l.Reconciler.Reconcile(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.publishStock(ctx, events.StockReleased, id, restored)
	return restored, nil
}

func (l *Lifecycle) UpdateDeliveryDate(ctx context.Context, id uuid.UUID, date time.Time) (*models.Order, error) {
	return l.SaveDetails(ctx, id, Details{DeliveryDate: &date})
}

func (l *Lifecycle) ApplyAdjustment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*models.Order, error) {
	o, err := l.update(ctx, id, func(_ *repo.GormRepo, o *models.Order) error {
		return applyAdjustment(o, amount)
	})
	if err != nil {
		return nil, err
	}
	l.publish(ctx, o, events.OrderAdjustmentApplied, map[string]any{"order_id": o.ID, "amount": Adjustment(o), "total": o.TotalAmount})
	return o, nil
}

func (l *Lifecycle) RevertAdjustment(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := l.update(ctx, id, func(_ *repo.GormRepo, o *models.Order) error {
		return revertAdjustment(o)
	})
	if err != nil {
		return nil, err
	}
	l.publish(ctx, o, events.OrderAdjustmentReverted, map[string]any{"order_id": o.ID, "total": o.TotalAmount})
	return o, nil
}

// Details is a combined back-office edit. A zero Adjustment reverts the
// current one.
type Details struct {
	DeliveryDate *time.Time
	Adjustment   *decimal.Decimal
}

// SaveDetails applies a delivery date and an adjustment in one transaction;
// either both land or neither does.
func (l *Lifecycle) SaveDetails(ctx context.Context, id uuid.UUID, d Details) (*models.Order, error) {
	if d.DeliveryDate == nil && d.Adjustment == nil {
		return nil, fmt.Errorf("nothing to save: %w", ErrValidation)
	}
	today := delivery.Today(ctx, l.Clock)

	var dateChanged, adjApplied, adjReverted bool
	o, err := l.update(ctx, id, func(_ *repo.GormRepo, o *models.Order) error {
		if !Editable(o.Status) {
			return fmt.Errorf("status %s: %w", o.Status, ErrNotEditable)
		}

		if d.DeliveryDate != nil {
			day, err := l.Scheduler.Validate(*d.DeliveryDate, today)
			if err != nil {
				return err
			}
			dateChanged = !day.Equal(delivery.DateOf(o.DeliveryDate))
			o.DeliveryDate = day
		}

		if d.Adjustment != nil {
			switch {
			case d.Adjustment.IsZero():
				if HasAdjustment(o) {
					adjReverted = true
					return revertAdjustment(o)
				}
			default:
				adjApplied = true
				return applyAdjustment(o, *d.Adjustment)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if dateChanged {
		l.publish(ctx, o, events.OrderDeliveryDateChanged, map[string]any{"order_id": o.ID, "delivery_date": o.DeliveryDate.Format(time.DateOnly)})
	}
	if adjApplied {
		l.publish(ctx, o, events.OrderAdjustmentApplied, map[string]any{"order_id": o.ID, "amount": Adjustment(o), "total": o.TotalAmount})
	}
	if adjReverted {
		l.publish(ctx, o, events.OrderAdjustmentReverted, map[string]any{"order_id": o.ID, "total": o.TotalAmount})
	}
	return o, nil
}

// update locks the order, lets fn mutate it and saves the header, all in one
// transaction. The committed order is reindexed.
func (l *Lifecycle) update(ctx context.Context, id uuid.UUID, fn func(tx *repo.GormRepo, o *models.Order) error) (*models.Order, error) {
	err := l.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := l.lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, o); err != nil {
			return err
		}
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	o, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.index(ctx, o)
	return o, nil
}

func (l *Lifecycle) lock(ctx context.Context, tx *repo.GormRepo, id uuid.UUID) (*models.Order, error) {
	o, err := tx.GetOrderForUpdate(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return o, err
}

func (l *Lifecycle) index(ctx context.Context, o *models.Order) {
	if l.Indexer == nil {
		return
	}
	if err := l.Indexer.IndexOrder(ctx, o); err != nil {
		logging.FromContext(ctx).Warn("index_order_error", "order_id", o.ID, "error", err)
	}
}

func (l *Lifecycle) publish(ctx context.Context, o *models.Order, eventType string, payload any) {
	events.Publish(ctx, l.Publisher, events.TopicOrders, o.ID.String(), eventType, payload)
}

func (l *Lifecycle) publishStock(ctx context.Context, eventType string, orderID uuid.UUID, moved Restock) {
	for productID, qty := range moved {
		events.Publish(ctx, l.Publisher, events.TopicStock, fmt.Sprint(productID), eventType, map[string]any{
			"product_id": productID,
			"quantity":   qty,
			"order_id":   orderID,
		})
	}
}
