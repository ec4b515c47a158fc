package entity

import "errors"

var (
	// ErrRateUnavailable signals that the external rate source had no data
	// and the lookup cannot be satisfied. Callers decide whether to apply an
	// approximate static rate; the engine never defaults silently to 1.0.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrNoPublication signals that NBP published no rate table for the
	// requested date (weekend, holiday). The caller should retry with
	// most-recent-available semantics.
	ErrNoPublication = errors.New("no rate table published for date")

	// ErrInvalidTimeWindow signals that a trip's end instant precedes its
	// start instant.
	ErrInvalidTimeWindow = errors.New("trip end precedes trip start")

	// ErrNonPositiveAmount signals an expense amount that is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be a positive value")

	// ErrUnknownCurrency signals a currency code that is not a three-letter
	// ISO 4217 style code.
	ErrUnknownCurrency = errors.New("currency must be a three-letter code")
)
