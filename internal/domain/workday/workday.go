// Package workday resolves the rate lookup date mandated for trip
// settlements: the last working day strictly before the settlement date.
package workday

import "time"

// LastWorkingDayBefore returns the last working day (Mon-Fri) strictly
// before the given date. The result always moves backward, even when the
// input itself lands on a working day. Only Saturday and Sunday count as
// non-working; no holiday calendar is applied.
func LastWorkingDayBefore(date time.Time) time.Time {
	d := date.AddDate(0, 0, -1)

	switch d.Weekday() {
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	default:
		return d
	}
}
