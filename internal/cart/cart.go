package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/craft_store/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrEmptyCart  = errors.New("cart is empty")
)

const guestBucket = "cart:guest"

// Identity owns a cart: an authenticated customer or a guest session.
type Identity struct {
	CustomerID string
	GuestID    string
}

func Customer(id string) Identity { return Identity{CustomerID: id} }
func Guest(id string) Identity    { return Identity{GuestID: id} }

func (i Identity) IsGuest() bool { return i.CustomerID == "" }

// Key is the snapshot key: cart:<customerID>, cart:guest:<guestID> or the
// shared cart:guest bucket.
func (i Identity) Key() string {
	if !i.IsGuest() {
		return "cart:" + i.CustomerID
	}
	if i.GuestID == "" {
		return guestBucket
	}
	return guestBucket + ":" + i.GuestID
}

type LineKey struct {
	ProductID uint
	Variant   models.Variant
}

func KeyOf(l models.CartLine) LineKey {
	return LineKey{ProductID: l.ProductID, Variant: l.Variant}
}

func Total(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func indexOf(lines []models.CartLine, key LineKey) int {
	for i, l := range lines {
		if KeyOf(l) == key {
			return i
		}
	}
	return -1
}

func clone(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}
