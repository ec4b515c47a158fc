package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used throughout the engine.
const DateLayout = "2006-01-02"

// HomeCurrency is the currency all trip settlements are expressed in.
const HomeCurrency = "PLN"

// Trip represents a business trip as stored by the expense tracker.
// The engine consumes trips read-only; it never writes them back.
type Trip struct {
	ID        string    `json:"id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// StartTime and EndTime hold the optional time of day as "15:04" or
	// "15:04:05". Legacy records carry empty, "null" or "undefined" values
	// and are treated as whole-day trips.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// DailyAllowance is the statutory allowance per day, in the allowance
	// currency (EUR in this domain).
	DailyAllowance decimal.Decimal `json:"daily_allowance"`

	// StaticRate is a user-provided approximate exchange rate kept on the
	// trip for the contingency that no live rate can be fetched.
	StaticRate decimal.Decimal `json:"static_rate"`

	Notes string `json:"notes"`
}

var timeOfDayLayouts = []string{"15:04", "15:04:05"}

// isLegacyTimeValue reports whether a time-of-day field holds one of the
// placeholder values legacy records were stored with.
func isLegacyTimeValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "null", "undefined":
		return true
	}
	return false
}

func combineDateTime(date time.Time, timeOfDay string) (time.Time, bool) {
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(timeOfDay)); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, date.Location()), true
		}
	}
	return time.Time{}, false
}

// Instants combines the trip's dates with their time-of-day values into
// start and end instants. ok is false when the trip lacks usable times and
// must be treated as a whole-day (date-only) record.
func (t *Trip) Instants() (start, end time.Time, ok bool) {
	if isLegacyTimeValue(t.StartTime) || isLegacyTimeValue(t.EndTime) {
		return time.Time{}, time.Time{}, false
	}

	start, okStart := combineDateTime(t.StartDate, t.StartTime)
	end, okEnd := combineDateTime(t.EndDate, t.EndTime)
	if !okStart || !okEnd {
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

// Validate ensures the trip describes a non-negative time window
func (t *Trip) Validate() error {
	if start, end, ok := t.Instants(); ok {
		if end.Before(start) {
			return ErrInvalidTimeWindow
		}
		return nil
	}

	if dayOf(t.EndDate).Before(dayOf(t.StartDate)) {
		return ErrInvalidTimeWindow
	}

	return nil
}

// CalendarDays returns the trip length in calendar days, inclusive of both
// the start and end date. A same-day trip counts as one day.
func (t *Trip) CalendarDays() int {
	return int(dayOf(t.EndDate).Sub(dayOf(t.StartDate)).Hours()/24) + 1
}

// dayOf strips the time-of-day component, normalizing to UTC midnight so
// calendar arithmetic is unaffected by location or DST.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
