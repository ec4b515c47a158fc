package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/mjaworski/tripsettle/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSummaryFixture(rates *mocks.MockRateGetter, trips *mocks.MockTripRepository, expenses *mocks.MockExpenseRepository) *TripSummaryService {
	cfg := testConversionConfig()
	log := testLogger()

	return NewTripSummaryService(
		trips,
		expenses,
		NewAllowanceService(rates, cfg, log),
		NewExpenseConversionService(rates, cfg, log),
		log,
	)
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()

	trip := &entity.Trip{
		ID:             "trip-1",
		StartDate:      day(2025, time.October, 15),
		StartTime:      "09:00",
		EndDate:        day(2025, time.October, 17),
		EndTime:        "09:00",
		DailyAllowance: decimal.NewFromInt(43),
	}

	t.Run("Grand total is expenses plus allowance", func(t *testing.T) {
		rates := new(mocks.MockRateGetter)
		service := newSummaryFixture(rates, nil, nil)

		expenseDate := day(2025, time.October, 16)
		expenses := []entity.Expense{
			{ID: "e1", Date: expenseDate, Amount: decimal.NewFromInt(100), Currency: "EUR"},
			{ID: "e2", Date: expenseDate, Amount: decimal.NewFromInt(200), Currency: "PLN"},
		}

		rates.On("GetRate", mock.Anything, "EUR", expenseDate).
			Return(eurQuote(day(2025, time.October, 15), 4.35), nil).Once()
		rates.On("GetRate", mock.Anything, "EUR", trip.StartDate).
			Return(eurQuote(day(2025, time.October, 14), 4.35), nil).Once()

		summary, err := service.Summarize(ctx, trip, expenses)
		require.NoError(t, err)

		// Expenses: 100 x 4.35 + 200 = 635; allowance: 2 x 43 x 4.35 = 374.10.
		assert.True(t, summary.ExpensesTotal.Equal(decimal.NewFromInt(635)),
			"expected 635, got %s", summary.ExpensesTotal)
		assert.True(t, summary.AllowanceTotal.Equal(decimal.NewFromFloat(374.10)))
		assert.True(t, summary.GrandTotal.Equal(decimal.NewFromFloat(1009.10)),
			"expected 1009.10, got %s", summary.GrandTotal)
		assert.Empty(t, summary.Warnings)

		rates.AssertExpectations(t)
	})

	t.Run("Fallback warnings surface on the summary", func(t *testing.T) {
		rates := new(mocks.MockRateGetter)
		service := newSummaryFixture(rates, nil, nil)

		expenseDate := day(2025, time.October, 16)
		expenses := []entity.Expense{
			{ID: "e1", Date: expenseDate, Amount: decimal.NewFromInt(50), Currency: "USD"},
		}

		rates.On("GetRate", mock.Anything, "USD", expenseDate).
			Return(nil, entity.ErrRateUnavailable).Once()
		rates.On("GetRate", mock.Anything, "EUR", trip.StartDate).
			Return(nil, entity.ErrRateUnavailable).Once()

		summary, err := service.Summarize(ctx, trip, expenses)
		require.NoError(t, err)

		// USD at the static 4.20, allowance at the static 4.35.
		assert.True(t, summary.ExpensesTotal.Equal(decimal.NewFromInt(210)))
		assert.True(t, summary.AllowanceTotal.Equal(decimal.NewFromFloat(374.10)))
		assert.Len(t, summary.Warnings, 2)

		rates.AssertExpectations(t)
	})

	t.Run("Invalid trip rejects the whole summary", func(t *testing.T) {
		rates := new(mocks.MockRateGetter)
		service := newSummaryFixture(rates, nil, nil)

		invalid := &entity.Trip{
			StartDate: day(2025, time.October, 17), StartTime: "09:00",
			EndDate: day(2025, time.October, 15), EndTime: "09:00",
		}

		_, err := service.Summarize(ctx, invalid, nil)
		assert.ErrorIs(t, err, entity.ErrInvalidTimeWindow)
	})
}

func TestSummarizeByID(t *testing.T) {
	ctx := context.Background()

	trip := &entity.Trip{
		ID:             "trip-1",
		StartDate:      day(2025, time.October, 15),
		EndDate:        day(2025, time.October, 15),
		DailyAllowance: decimal.NewFromInt(43),
	}

	t.Run("Resolves the trip and its expenses through the ports", func(t *testing.T) {
		rates := new(mocks.MockRateGetter)
		trips := new(mocks.MockTripRepository)
		expenseRepo := new(mocks.MockExpenseRepository)
		service := newSummaryFixture(rates, trips, expenseRepo)

		trips.On("FindByID", ctx, "trip-1").Return(trip, nil).Once()
		expenseRepo.On("ListByTrip", ctx, "trip-1").Return([]entity.Expense{
			{ID: "e1", Date: trip.StartDate, Amount: decimal.NewFromInt(80), Currency: "PLN"},
		}, nil).Once()
		rates.On("GetRate", mock.Anything, "EUR", trip.StartDate).
			Return(eurQuote(day(2025, time.October, 14), 4.35), nil).Once()

		summary, err := service.SummarizeByID(ctx, "trip-1")
		require.NoError(t, err)

		assert.Equal(t, "trip-1", summary.TripID)
		assert.True(t, summary.ExpensesTotal.Equal(decimal.NewFromInt(80)))
		// One date-only day: 43 x 4.35 = 187.05.
		assert.True(t, summary.AllowanceTotal.Equal(decimal.NewFromFloat(187.05)))
		assert.True(t, summary.GrandTotal.Equal(decimal.NewFromFloat(267.05)))

		trips.AssertExpectations(t)
		expenseRepo.AssertExpectations(t)
		rates.AssertExpectations(t)
	})

	t.Run("Trip not found", func(t *testing.T) {
		trips := new(mocks.MockTripRepository)
		service := newSummaryFixture(new(mocks.MockRateGetter), trips, new(mocks.MockExpenseRepository))

		trips.On("FindByID", ctx, "missing").Return(nil, errors.New("trip not found")).Once()

		_, err := service.SummarizeByID(ctx, "missing")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to retrieve trip")

		trips.AssertExpectations(t)
	})

	t.Run("Expense listing failure", func(t *testing.T) {
		trips := new(mocks.MockTripRepository)
		expenseRepo := new(mocks.MockExpenseRepository)
		service := newSummaryFixture(new(mocks.MockRateGetter), trips, expenseRepo)

		trips.On("FindByID", ctx, "trip-1").Return(trip, nil).Once()
		expenseRepo.On("ListByTrip", ctx, "trip-1").Return(nil, errors.New("db down")).Once()

		_, err := service.SummarizeByID(ctx, "trip-1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to retrieve expenses")

		trips.AssertExpectations(t)
		expenseRepo.AssertExpectations(t)
	})
}
