package service

import (
	"context"
	"fmt"

	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/mjaworski/tripsettle/internal/domain/repository"
	"github.com/mjaworski/tripsettle/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// TripSummary is the full PLN settlement of a trip: converted expenses plus
// the statutory allowance.
type TripSummary struct {
	TripID         string          `json:"trip_id"`
	ExpensesTotal  decimal.Decimal `json:"expenses_total"`
	AllowanceTotal decimal.Decimal `json:"allowance_total"`
	GrandTotal     decimal.Decimal `json:"grand_total"`

	Allowance *AllowanceResult  `json:"allowance"`
	Expenses  *ConversionReport `json:"expenses"`

	// Warnings collects every approximate-rate signal raised while
	// computing the summary; they affect legal accuracy and must reach
	// the user.
	Warnings []string `json:"warnings,omitempty"`
}

// TripSummaryService composes the allowance and expense conversion services
// into a single trip settlement.
type TripSummaryService struct {
	trips     repository.TripRepository
	expenses  repository.ExpenseRepository
	allowance *AllowanceService
	converter *ExpenseConversionService
	logger    logger.Logger
}

// NewTripSummaryService creates a new trip summary service
func NewTripSummaryService(
	trips repository.TripRepository,
	expenses repository.ExpenseRepository,
	allowance *AllowanceService,
	converter *ExpenseConversionService,
	log logger.Logger,
) *TripSummaryService {
	if log == nil {
		log = logger.Default()
	}

	return &TripSummaryService{
		trips:     trips,
		expenses:  expenses,
		allowance: allowance,
		converter: converter,
		logger:    log,
	}
}

// Summarize settles a trip: converts its expenses, values its allowance and
// adds the two. It holds no logic beyond the composition.
func (s *TripSummaryService) Summarize(ctx context.Context, trip *entity.Trip, expenses []entity.Expense) (*TripSummary, error) {
	report, err := s.converter.ConvertAll(ctx, expenses)
	if err != nil {
		return nil, fmt.Errorf("failed to convert expenses: %w", err)
	}

	allowance, err := s.allowance.ComputeAllowancePLN(ctx, trip)
	if err != nil {
		return nil, fmt.Errorf("failed to compute allowance: %w", err)
	}

	summary := &TripSummary{
		TripID:         trip.ID,
		ExpensesTotal:  report.Total,
		AllowanceTotal: allowance.AmountPLN,
		GrandTotal:     report.Total.Add(allowance.AmountPLN),
		Allowance:      allowance,
		Expenses:       report,
		Warnings:       append([]string(nil), report.Warnings...),
	}
	if allowance.Warning != "" {
		summary.Warnings = append(summary.Warnings, allowance.Warning)
	}

	s.logger.Info("Trip summarized", map[string]interface{}{
		"trip_id":         trip.ID,
		"expenses_total":  summary.ExpensesTotal.String(),
		"allowance_total": summary.AllowanceTotal.String(),
		"grand_total":     summary.GrandTotal.String(),
		"warnings":        len(summary.Warnings),
	})

	return summary, nil
}

// SummarizeByID resolves a trip and its expenses through the read-only
// persistence ports, then settles it.
func (s *TripSummaryService) SummarizeByID(ctx context.Context, tripID string) (*TripSummary, error) {
	trip, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		s.logger.Error("Failed to retrieve trip for settlement", map[string]interface{}{
			"trip_id": tripID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("failed to retrieve trip: %w", err)
	}

	expenses, err := s.expenses.ListByTrip(ctx, tripID)
	if err != nil {
		s.logger.Error("Failed to retrieve trip expenses", map[string]interface{}{
			"trip_id": tripID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("failed to retrieve expenses: %w", err)
	}

	return s.Summarize(ctx, trip, expenses)
}
