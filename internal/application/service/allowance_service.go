// Package service internal/application/service/allowance_service.go
package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mjaworski/tripsettle/internal/config"
	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/mjaworski/tripsettle/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

const hoursPerDay = 24

// Partial-day allowance tiers. The boundaries are a statutory rule:
// strictly under 8 leftover hours earns a third of a day, 8 through 12
// inclusive earns half, anything over 12 earns a full day.
var (
	multiplierNone  = decimal.Zero
	multiplierThird = decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	multiplierHalf  = decimal.NewFromInt(1).Div(decimal.NewFromInt(2))
	multiplierFull  = decimal.NewFromInt(1)
)

// RateGetter resolves the PLN mid rate for a currency and settlement date.
// The rate cache satisfies this interface.
type RateGetter interface {
	GetRate(ctx context.Context, code string, settlementDate time.Time) (*entity.RateQuote, error)
}

// AllowanceResult is the PLN valuation of a trip's statutory allowance.
type AllowanceResult struct {
	Breakdown entity.TimeBreakdown `json:"breakdown"`

	// AllowanceUnits is effective days times the trip's daily rate, in the
	// allowance currency.
	AllowanceUnits decimal.Decimal `json:"allowance_units"`

	Rate      decimal.Decimal `json:"rate"`
	RateDate  *time.Time      `json:"rate_date,omitempty"`
	AmountPLN decimal.Decimal `json:"amount_pln"`

	// FallbackUsed marks a valuation computed with an approximate static
	// rate instead of a live NBP quote. Such figures are not tax-exact and
	// the accompanying Warning must be shown to the user.
	FallbackUsed bool   `json:"fallback_used"`
	Warning      string `json:"warning,omitempty"`
}

// AllowanceService computes trip duration breakdowns and values the
// statutory allowance in PLN.
type AllowanceService struct {
	rates  RateGetter
	cfg    config.Conversion
	logger logger.Logger
}

// NewAllowanceService creates a new allowance service
func NewAllowanceService(rates RateGetter, cfg config.Conversion, log logger.Logger) *AllowanceService {
	if log == nil {
		log = logger.Default()
	}

	return &AllowanceService{
		rates:  rates,
		cfg:    cfg,
		logger: log,
	}
}

// ComputeBreakdown splits a trip's duration into full 24-hour days and the
// partial-day tier earned by the leftover hours. Trips without usable
// time-of-day values are legacy whole-day records: every calendar day from
// start to end, inclusive, counts as a full day.
func (s *AllowanceService) ComputeBreakdown(trip *entity.Trip) (*entity.TimeBreakdown, error) {
	if err := trip.Validate(); err != nil {
		return nil, err
	}

	start, end, timed := trip.Instants()
	if !timed {
		days := trip.CalendarDays()
		return &entity.TimeBreakdown{
			TotalHours:    float64(days * hoursPerDay),
			FullDays:      days,
			LeftoverHours: 0,
			Multiplier:    multiplierNone,
			EffectiveDays: decimal.NewFromInt(int64(days)),
		}, nil
	}

	totalHours := end.Sub(start).Hours()
	fullDays := int(math.Floor(totalHours / hoursPerDay))
	leftoverHours := totalHours - float64(fullDays)*hoursPerDay

	multiplier := multiplierNone
	switch {
	case leftoverHours <= 0:
	case leftoverHours < 8:
		multiplier = multiplierThird
	case leftoverHours <= 12:
		multiplier = multiplierHalf
	default:
		multiplier = multiplierFull
	}

	return &entity.TimeBreakdown{
		TotalHours:    totalHours,
		FullDays:      fullDays,
		LeftoverHours: leftoverHours,
		Multiplier:    multiplier,
		EffectiveDays: decimal.NewFromInt(int64(fullDays)).Add(multiplier),
	}, nil
}

// ComputeAllowancePLN values the trip's allowance in PLN using the rate for
// the trip's start date. When no live rate is available the computation
// falls back to the trip's stored approximate rate (or the static table)
// and flags the result; it never fails outright for a missing rate.
func (s *AllowanceService) ComputeAllowancePLN(ctx context.Context, trip *entity.Trip) (*AllowanceResult, error) {
	breakdown, err := s.ComputeBreakdown(trip)
	if err != nil {
		return nil, err
	}

	units := trip.DailyAllowance.Mul(decimal.NewFromInt(int64(breakdown.FullDays))).
		Add(trip.DailyAllowance.Mul(breakdown.Multiplier))

	result := &AllowanceResult{
		Breakdown:      *breakdown,
		AllowanceUnits: units,
	}

	quote, err := s.rates.GetRate(ctx, s.cfg.AllowanceCurrency, trip.StartDate)
	if err != nil {
		rate, warning, fbErr := s.approximateRate(trip)
		if fbErr != nil {
			return nil, fbErr
		}

		s.logger.Warn("Allowance valued with approximate rate", map[string]interface{}{
			"trip_id":  trip.ID,
			"currency": s.cfg.AllowanceCurrency,
			"rate":     rate.String(),
			"error":    err.Error(),
		})

		result.Rate = rate
		result.FallbackUsed = true
		result.Warning = warning
	} else {
		rateDate := quote.RateDate
		result.Rate = quote.Mid
		result.RateDate = &rateDate
	}

	result.AmountPLN = units.Mul(result.Rate).Round(2)

	s.logger.Info("Allowance computed", map[string]interface{}{
		"trip_id":        trip.ID,
		"effective_days": breakdown.EffectiveDays.String(),
		"rate":           result.Rate.String(),
		"amount_pln":     result.AmountPLN.String(),
		"fallback":       result.FallbackUsed,
	})

	return result, nil
}

// approximateRate picks the contingency rate for a trip: the user-provided
// rate stored on the trip record, then the configured static table.
func (s *AllowanceService) approximateRate(trip *entity.Trip) (decimal.Decimal, string, error) {
	if trip.StaticRate.GreaterThan(decimal.Zero) {
		return trip.StaticRate,
			fmt.Sprintf("allowance valued with the trip's stored approximate rate %s; live %s rate was unavailable",
				trip.StaticRate, s.cfg.AllowanceCurrency),
			nil
	}

	if rate, ok := s.cfg.FallbackRate(s.cfg.AllowanceCurrency); ok {
		return rate,
			fmt.Sprintf("allowance valued with the static approximate rate %s for %s; live rate was unavailable",
				rate, s.cfg.AllowanceCurrency),
			nil
	}

	return decimal.Decimal{}, "", fmt.Errorf("%w: no approximate rate for %s",
		entity.ErrRateUnavailable, s.cfg.AllowanceCurrency)
}
