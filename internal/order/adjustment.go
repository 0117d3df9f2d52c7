package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/craft_store/internal/models"
)

type Affordance string

const (
	AffordanceAdd    Affordance = "add"
	AffordanceRevert Affordance = "revert"
)

// HasAdjustment is derived from the stored amounts, never from a flag.
func HasAdjustment(o *models.Order) bool {
	return !o.TotalAmount.Equal(o.BaseAmount())
}

func AffordanceFor(o *models.Order) Affordance {
	if HasAdjustment(o) {
		return AffordanceRevert
	}
	return AffordanceAdd
}

// Adjustment is the extra charge currently layered on top of the base amount.
func Adjustment(o *models.Order) decimal.Decimal {
	return o.TotalAmount.Sub(o.BaseAmount())
}

// applyAdjustment replaces any previous adjustment with amount.
func applyAdjustment(o *models.Order, amount decimal.Decimal) error {
	if !Editable(o.Status) {
		return fmt.Errorf("status %s: %w", o.Status, ErrNotEditable)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("adjustment must be positive: %w", ErrValidation)
	}
	o.TotalAmount = o.BaseAmount().Add(amount.Round(2))
	return nil
}

func revertAdjustment(o *models.Order) error {
	if !Editable(o.Status) {
		return fmt.Errorf("status %s: %w", o.Status, ErrNotEditable)
	}
	if !HasAdjustment(o) {
		return fmt.Errorf("no adjustment to revert: %w", ErrValidation)
	}
	o.TotalAmount = o.BaseAmount()
	return nil
}
