package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/craft_store/internal/cart"
	"github.com/Skotchmaster/craft_store/internal/delivery"
	"github.com/Skotchmaster/craft_store/internal/events"
	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/repo"
)

type CheckoutRequest struct {
	PaymentMethod  string
	InitialPayment *decimal.Decimal
	DeliveryDate   *time.Time
}

func ReserveKey(orderID uuid.UUID, line models.CartLine) string {
	return fmt.Sprintf("checkout:%s:%d:%s", orderID, line.ProductID, line.Variant)
}

// Checkout turns the customer's cart into an order. Stock for every line is
// reserved, the order is written and the cart is emptied in one transaction.
func (l *Lifecycle) Checkout(ctx context.Context, id cart.Identity, req CheckoutRequest) (*models.Order, error) {
	if id.IsGuest() {
		return nil, fmt.Errorf("checkout requires a customer: %w", ErrValidation)
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return nil, fmt.Errorf("payment_method required: %w", ErrValidation)
	}
	var deposit *decimal.Decimal
	if req.InitialPayment != nil {
		d := req.InitialPayment.Round(2)
		if !d.IsPositive() {
			return nil, fmt.Errorf("initial_payment must be at least 0.01: %w", ErrValidation)
		}
		deposit = &d
	}

	now := delivery.Now(ctx, l.Clock)
	today := delivery.DateOf(now)
	deliveryDate := l.Scheduler.EarliestDelivery(today)
	if req.DeliveryDate != nil {
		day, err := l.Scheduler.Validate(*req.DeliveryDate, today)
		if err != nil {
			return nil, err
		}
		deliveryDate = day
	}

	o := &models.Order{
		ID:            uuid.New(),
		CustomerID:    id.CustomerID,
		Status:        models.OrderStatusFirstPayment,
		PaymentMethod: method,
		OrderDate:     now,
		DeliveryDate:  deliveryDate,
	}

	err := l.Carts.Checkout(ctx, id, func(tx *repo.GormRepo, lines []models.CartLine) error {
		ledger := l.Ledger.WithRepo(tx)
		subtotal := decimal.Zero

		for _, line := range lines {
			p, err := tx.GetProduct(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("product %d: %w", line.ProductID, err)
			}
			if !p.Active {
				return fmt.Errorf("product %d is not for sale: %w", p.ID, ErrValidation)
			}
			if err := ledger.Reserve(ctx, line.ProductID, line.Quantity, ReserveKey(o.ID, line)); err != nil {
				return err
			}

			sub := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			subtotal = subtotal.Add(sub)
			o.LineItems = append(o.LineItems, models.OrderLineItem{
				ProductID: line.ProductID,
				Variant:   line.Variant,
				Quantity:  line.Quantity,
				Subtotal:  sub,
			})
		}

		total := WithTax(subtotal, l.TaxPercent)
		initial := Deposit(total, l.DepositPercent)
		if deposit != nil {
			if deposit.GreaterThan(total) {
				return fmt.Errorf("initial_payment %s exceeds total %s: %w", deposit, total, ErrValidation)
			}
			initial = *deposit
		}

		o.TotalAmount = total
		o.InitialPayment = initial
		o.RemainingPayment = total.Sub(initial)
		return tx.CreateOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	reserved := Restock{}
	for _, it := range o.LineItems {
		reserved[it.ProductID] += it.Quantity
	}
	l.index(ctx, o)
	l.publish(ctx, o, events.OrderCreated, map[string]any{
		"order_id":    o.ID,
		"customer_id": o.CustomerID,
		"total":       o.TotalAmount,
		"items":       len(o.LineItems),
	})
	l.publishStock(ctx, events.StockReserved, o.ID, reserved)
	return o, nil
}

func WithTax(subtotal decimal.Decimal, taxPercent int) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromInt(int64(100 + taxPercent))).Div(decimal.NewFromInt(100)).Round(2)
}

func Deposit(total decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 || percent >= 100 {
		return total
	}
	return total.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100)).Round(2)
}
