package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/craft_store/internal/cart"
	"github.com/Skotchmaster/craft_store/internal/delivery"
	"github.com/Skotchmaster/craft_store/internal/events"
	"github.com/Skotchmaster/craft_store/internal/models"
	"github.com/Skotchmaster/craft_store/internal/stock"
)

func TestCheckout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.product(t, 1, 5, "10.00")
	f.product(t, 2, 3, "2.50")
	id := cart.Customer("cust-9")

	_, err := f.carts.Add(ctx, id, models.CartLine{ProductID: 1, Variant: models.VariantPredesigned, Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, id, models.CartLine{ProductID: 2, Variant: models.VariantCustomized, Quantity: 3, CustomizationNote: "initials"})
	require.NoError(t, err)

	o, err := f.life.Checkout(ctx, id, CheckoutRequest{PaymentMethod: "card"})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusFirstPayment, o.Status)
	assert.Equal(t, "cust-9", o.CustomerID)
	require.Len(t, o.LineItems, 2)

	sum := decimal.Zero
	for _, it := range o.LineItems {
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, sum.Equal(decimal.RequireFromString("27.50")))
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("32.73")), o.TotalAmount.String())
	assert.True(t, o.InitialPayment.Add(o.RemainingPayment).Equal(o.TotalAmount))
	assert.True(t, o.InitialPayment.Equal(decimal.RequireFromString("16.37")), o.InitialPayment.String())
	assert.Equal(t, time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC), o.DeliveryDate)

	assert.Equal(t, 3, f.stock(t, 1))
	assert.Equal(t, 0, f.stock(t, 2))

	lines, err := f.carts.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, lines)

	assert.Contains(t, f.events.types(), events.OrderCreated)
	assert.Contains(t, f.events.types(), events.StockReserved)

	stored, err := f.life.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, stored.LineItems, 2)
}

func TestCheckout_StockGoneKeepsCart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.product(t, 1, 5, "10")
	f.product(t, 2, 5, "10")
	id := cart.Customer("cust-9")

	_, err := f.carts.Add(ctx, id, models.CartLine{ProductID: 1, Variant: models.VariantPredesigned, Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, id, models.CartLine{ProductID: 2, Variant: models.VariantPredesigned, Quantity: 4})
	require.NoError(t, err)

	// someone else bought product 2 in the meantime
	require.NoError(t, f.life.Ledger.Reserve(ctx, 2, 3, "other"))

	_, err = f.life.Checkout(ctx, id, CheckoutRequest{PaymentMethod: "card"})
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	assert.Equal(t, 5, f.stock(t, 1))
	assert.Equal(t, 2, f.stock(t, 2))

	lines, err := f.carts.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	page, _, err := f.life.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, page.Total)
}

func TestCheckout_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.product(t, 1, 5, "10")
	id := cart.Customer("cust-9")
	_, err := f.carts.Add(ctx, id, models.CartLine{ProductID: 1, Variant: models.VariantPredesigned, Quantity: 1})
	require.NoError(t, err)

	early := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	tooMuch := decimal.NewFromInt(1000)
	zero := decimal.Zero
	subCent := decimal.RequireFromString("0.001")

	tests := []struct {
		name string
		id   cart.Identity
		req  CheckoutRequest
		want error
	}{
		{name: "guest", id: cart.Guest("g"), req: CheckoutRequest{PaymentMethod: "card"}, want: ErrValidation},
		{name: "no payment method", id: id, req: CheckoutRequest{}, want: ErrValidation},
		{name: "zero deposit", id: id, req: CheckoutRequest{PaymentMethod: "card", InitialPayment: &zero}, want: ErrValidation},
		{name: "deposit rounds to zero", id: id, req: CheckoutRequest{PaymentMethod: "card", InitialPayment: &subCent}, want: ErrValidation},
		{name: "deposit over total", id: id, req: CheckoutRequest{PaymentMethod: "card", InitialPayment: &tooMuch}, want: ErrValidation},
		{name: "date too early", id: id, req: CheckoutRequest{PaymentMethod: "card", DeliveryDate: &early}, want: delivery.ErrDeliveryTooEarly},
		{name: "empty cart", id: cart.Customer("nobody"), req: CheckoutRequest{PaymentMethod: "card"}, want: cart.ErrEmptyCart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.life.Checkout(ctx, tt.id, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 5, f.stock(t, 1))
}

func TestMoneyHelpers(t *testing.T) {
	t.Parallel()
	assert.True(t, WithTax(decimal.NewFromInt(100), 19).Equal(decimal.NewFromInt(119)))
	assert.True(t, Deposit(decimal.NewFromInt(119), 50).Equal(decimal.RequireFromString("59.5")))
	assert.True(t, Deposit(decimal.NewFromInt(119), 0).Equal(decimal.NewFromInt(119)))
}
