package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mjaworski/tripsettle/internal/config"
	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/mjaworski/tripsettle/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ConvertedExpense is one expense valued in PLN.
type ConvertedExpense struct {
	Expense   entity.Expense  `json:"expense"`
	Rate      decimal.Decimal `json:"rate"`
	RateDate  *time.Time      `json:"rate_date,omitempty"`
	AmountPLN decimal.Decimal `json:"amount_pln"`

	// FallbackUsed marks a conversion made with the static approximate
	// rate table instead of a live NBP quote.
	FallbackUsed bool `json:"fallback_used"`

	// Failed marks an expense that could not be converted at all. Failed
	// items are excluded from the totals but keep their position in Items.
	Failed        bool   `json:"failed"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// ConversionReport aggregates a batch conversion: PLN totals overall and by
// original currency, plus the per-expense detail in input order.
type ConversionReport struct {
	Total      decimal.Decimal            `json:"total"`
	ByCurrency map[string]decimal.Decimal `json:"by_currency"`
	Items      []ConvertedExpense         `json:"items"`
	Warnings   []string                   `json:"warnings,omitempty"`
}

// ExpenseConversionService converts foreign-currency expenses to PLN. Each
// expense is converted independently at the rate for its own date; one
// currency's failure never aborts the batch.
type ExpenseConversionService struct {
	rates  RateGetter
	cfg    config.Conversion
	logger logger.Logger
}

// NewExpenseConversionService creates a new expense conversion service
func NewExpenseConversionService(rates RateGetter, cfg config.Conversion, log logger.Logger) *ExpenseConversionService {
	if log == nil {
		log = logger.Default()
	}

	return &ExpenseConversionService{
		rates:  rates,
		cfg:    cfg,
		logger: log,
	}
}

// ConvertAll converts a list of expenses to PLN. Rate fetches fan out with
// bounded concurrency; results are recombined in input order regardless of
// completion order.
func (s *ExpenseConversionService) ConvertAll(ctx context.Context, expenses []entity.Expense) (*ConversionReport, error) {
	items := make([]ConvertedExpense, len(expenses))

	g := new(errgroup.Group)
	limit := s.cfg.MaxConcurrentFetches
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for i := range expenses {
		g.Go(func() error {
			items[i] = s.convertOne(ctx, expenses[i])
			return nil
		})
	}

	// Per-expense failures are recorded on the items, never returned.
	_ = g.Wait()

	report := &ConversionReport{
		ByCurrency: make(map[string]decimal.Decimal),
		Items:      items,
	}

	for _, item := range items {
		if item.Failed {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"expense %s (%s %s) was not converted: %s",
				item.Expense.ID, item.Expense.Amount, item.Expense.Currency, item.FailureReason))
			continue
		}

		if item.FallbackUsed {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"expense %s converted with the approximate static rate %s for %s; live rate was unavailable",
				item.Expense.ID, item.Rate, item.Expense.Currency))
		}

		currency := strings.ToUpper(item.Expense.Currency)
		report.ByCurrency[currency] = report.ByCurrency[currency].Add(item.AmountPLN)
		report.Total = report.Total.Add(item.AmountPLN)
	}

	return report, nil
}

func (s *ExpenseConversionService) convertOne(ctx context.Context, expense entity.Expense) ConvertedExpense {
	item := ConvertedExpense{Expense: expense}

	if err := expense.Validate(); err != nil {
		item.Failed = true
		item.FailureReason = err.Error()
		return item
	}

	// Home-currency expenses pass through unchanged.
	if strings.EqualFold(expense.Currency, s.cfg.HomeCurrency) {
		item.Rate = decimal.NewFromInt(1)
		item.AmountPLN = expense.Amount.Round(2)
		return item
	}

	quote, err := s.rates.GetRate(ctx, expense.Currency, expense.Date)
	if err != nil {
		rate, ok := s.cfg.FallbackRate(expense.Currency)
		if !ok {
			s.logger.Error("Expense conversion failed", map[string]interface{}{
				"expense_id": expense.ID,
				"currency":   expense.Currency,
				"error":      err.Error(),
			})

			item.Failed = true
			item.FailureReason = err.Error()
			return item
		}

		s.logger.Warn("Expense converted with approximate rate", map[string]interface{}{
			"expense_id": expense.ID,
			"currency":   expense.Currency,
			"rate":       rate.String(),
			"error":      err.Error(),
		})

		item.Rate = rate
		item.FallbackUsed = true
		item.AmountPLN = expense.Amount.Mul(rate).Round(2)
		return item
	}

	rateDate := quote.RateDate
	item.Rate = quote.Mid
	item.RateDate = &rateDate
	item.AmountPLN = expense.Amount.Mul(quote.Mid).Round(2)

	return item
}
