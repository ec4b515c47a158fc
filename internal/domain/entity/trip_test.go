package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTripInstants(t *testing.T) {
	t.Run("Valid times combine with dates", func(t *testing.T) {
		trip := &Trip{
			StartDate: day(2025, time.October, 15),
			StartTime: "09:00",
			EndDate:   day(2025, time.October, 17),
			EndTime:   "09:00",
		}

		start, end, ok := trip.Instants()
		assert.True(t, ok)
		assert.Equal(t, time.Date(2025, time.October, 15, 9, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2025, time.October, 17, 9, 0, 0, 0, time.UTC), end)
	})

	t.Run("Seconds layout is accepted", func(t *testing.T) {
		trip := &Trip{
			StartDate: day(2025, time.October, 15),
			StartTime: "09:30:15",
			EndDate:   day(2025, time.October, 15),
			EndTime:   "18:00:00",
		}

		start, _, ok := trip.Instants()
		assert.True(t, ok)
		assert.Equal(t, 30, start.Minute())
		assert.Equal(t, 15, start.Second())
	})

	t.Run("Legacy placeholder values mean date-only", func(t *testing.T) {
		for _, v := range []string{"", "null", "NULL", "undefined", "  "} {
			trip := &Trip{
				StartDate: day(2025, time.October, 15),
				StartTime: v,
				EndDate:   day(2025, time.October, 17),
				EndTime:   "09:00",
			}

			_, _, ok := trip.Instants()
			assert.False(t, ok, "value %q should be treated as date-only", v)
		}
	})

	t.Run("Unparseable time means date-only", func(t *testing.T) {
		trip := &Trip{
			StartDate: day(2025, time.October, 15),
			StartTime: "9 o'clock",
			EndDate:   day(2025, time.October, 17),
			EndTime:   "09:00",
		}

		_, _, ok := trip.Instants()
		assert.False(t, ok)
	})
}

func TestTripValidate(t *testing.T) {
	t.Run("Timed trip with end before start is rejected", func(t *testing.T) {
		trip := &Trip{
			StartDate: day(2025, time.October, 17),
			StartTime: "09:00",
			EndDate:   day(2025, time.October, 15),
			EndTime:   "09:00",
		}

		assert.ErrorIs(t, trip.Validate(), ErrInvalidTimeWindow)
	})

	t.Run("Same-day timed trip with end before start is rejected", func(t *testing.T) {
		trip := &Trip{
			StartDate: day(2025, time.October, 15),
			StartTime: "14:00",
			EndDate:   day(2025, time.October, 15),
			EndTime:   "09:00",
		}

		assert.ErrorIs(t, trip.Validate(), ErrInvalidTimeWindow)
	})

	t.Run("Date-only trip with end before start is rejected", func(t *testing.T) {
		trip := &Trip{
			StartDate: day(2025, time.October, 17),
			EndDate:   day(2025, time.October, 15),
		}

		assert.ErrorIs(t, trip.Validate(), ErrInvalidTimeWindow)
	})

	t.Run("Valid trips pass", func(t *testing.T) {
		timed := &Trip{
			StartDate: day(2025, time.October, 15),
			StartTime: "09:00",
			EndDate:   day(2025, time.October, 15),
			EndTime:   "09:00",
		}
		assert.NoError(t, timed.Validate())

		dateOnly := &Trip{
			StartDate: day(2025, time.October, 15),
			EndDate:   day(2025, time.October, 15),
		}
		assert.NoError(t, dateOnly.Validate())
	})
}

func TestTripCalendarDays(t *testing.T) {
	trip := &Trip{
		StartDate: day(2025, time.October, 15),
		EndDate:   day(2025, time.October, 17),
	}
	assert.Equal(t, 3, trip.CalendarDays())

	sameDay := &Trip{
		StartDate: day(2025, time.October, 15),
		EndDate:   day(2025, time.October, 15),
	}
	assert.Equal(t, 1, sameDay.CalendarDays())
}

func TestExpenseValidate(t *testing.T) {
	valid := &Expense{
		Amount:   decimal.NewFromFloat(12.50),
		Currency: "EUR",
	}
	assert.NoError(t, valid.Validate())

	zero := &Expense{Amount: decimal.Zero, Currency: "EUR"}
	assert.ErrorIs(t, zero.Validate(), ErrNonPositiveAmount)

	negative := &Expense{Amount: decimal.NewFromInt(-5), Currency: "EUR"}
	assert.ErrorIs(t, negative.Validate(), ErrNonPositiveAmount)

	badCode := &Expense{Amount: decimal.NewFromInt(5), Currency: "EURO"}
	assert.ErrorIs(t, badCode.Validate(), ErrUnknownCurrency)
}

func TestRateQuoteKey(t *testing.T) {
	quote := &RateQuote{
		Currency:      "EUR",
		RequestedDate: day(2025, time.October, 14),
	}
	assert.Equal(t, "EUR:2025-10-14", quote.Key())
}
