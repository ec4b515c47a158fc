package entity

import "github.com/shopspring/decimal"

// TimeBreakdown is the duration breakdown of a trip: full 24-hour days plus
// the statutory partial-day tier for the leftover hours. It is computed per
// request and never persisted.
type TimeBreakdown struct {
	TotalHours    float64 `json:"total_hours"`
	FullDays      int     `json:"full_days"`
	LeftoverHours float64 `json:"leftover_hours"`

	// Multiplier is the partial-day allowance fraction: 0, 1/3, 1/2 or 1.
	Multiplier decimal.Decimal `json:"multiplier"`

	// EffectiveDays is FullDays + Multiplier.
	EffectiveDays decimal.Decimal `json:"effective_days"`
}
