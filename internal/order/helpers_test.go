package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/craft_store/internal/cart"
	"github.com/Skotchmaster/craft_store/internal/events"
	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/repo"
	"github.com/Skotchmaster/craft_store/internal/repo/repotest"
)

type fixedClock time.Time

func (c fixedClock) ServerDate(context.Context) (time.Time, error) { return time.Time(c), nil }

type published struct {
	Topic string
	Key   string
	Type  string
}

type recorder struct {
	mu  sync.Mutex
	got []published
}

func (r *recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, published{Topic: topic, Key: key, Type: event.(events.Event).Type})
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, p := range r.got {
		out = append(out, p.Type)
	}
	return out
}

type fixture struct {
	repo   *repo.GormRepo
	carts  *cart.Store
	life   *Lifecycle
	events *recorder
}

var friday = time.Date(2025, 5, 2, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := repotest.NewRepo(t)
	rec := &recorder{}
	life := NewLifecycle(r, nil, Options{Publisher: rec, TaxPercent: 19, DepositPercent: 50, MinLeadDays: 3})
	life.Carts = cart.NewStore(r, life.Ledger, rec)
	life.Clock = fixedClock(friday)
	return &fixture{repo: r, carts: life.Carts, life: life, events: rec}
}

func (f *fixture) product(t *testing.T, id uint, stock int, price string) {
	t.Helper()
	require.NoError(t, f.repo.CreateProduct(context.Background(), &models.Product{
		ID:            id,
		Name:          "item",
		StockQuantity: stock,
		Price:         decimal.RequireFromString(price),
		Active:        true,
	}))
}

func (f *fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	n, err := f.life.Ledger.CurrentStock(context.Background(), id)
	require.NoError(t, err)
	return n
}

type item struct {
	product uint
	qty     int
}

// order writes an order directly, bypassing checkout and stock.
func (f *fixture) order(t *testing.T, status models.OrderStatus, items ...item) *models.Order {
	t.Helper()
	o := &models.Order{
		CustomerID:       "cust-1",
		Status:           status,
		PaymentMethod:    "cash",
		OrderDate:        friday,
		DeliveryDate:     time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC),
		InitialPayment:   decimal.RequireFromString("50"),
		RemainingPayment: decimal.RequireFromString("69"),
		TotalAmount:      decimal.RequireFromString("119"),
	}
	for _, it := range items {
		o.LineItems = append(o.LineItems, models.OrderLineItem{
			ProductID: it.product,
			Variant:   models.VariantPredesigned,
			Quantity:  it.qty,
			Subtotal:  decimal.NewFromInt(int64(it.qty) * 10),
		})
	}
	require.NoError(t, f.repo.CreateOrder(context.Background(), o))
	return o
}
