package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a single trip expense as stored by the expense tracker.
// The engine consumes expenses read-only.
type Expense struct {
	ID          string          `json:"id"`
	TripID      string          `json:"trip_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// Validate ensures the expense meets all requirements
func (e *Expense) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}

	if len(e.Currency) != 3 {
		return ErrUnknownCurrency
	}

	return nil
}
