package service

import (
	"context"
	"time"

	"github.com/mjaworski/tripsettle/internal/domain/entity"
)

// RateSource defines the interface for fetching NBP daily mid rates.
// It is consulted by the rate cache only on a miss or after expiry.
type RateSource interface {
	// FetchRate retrieves the mid rate of a currency for an exact
	// publication date. Returns entity.ErrNoPublication when NBP published
	// no table for that date.
	FetchRate(ctx context.Context, code string, date time.Time) (*entity.RateQuote, error)

	// FetchLatest retrieves the most recently published mid rate of a
	// currency, with no date constraint.
	FetchLatest(ctx context.Context, code string) (*entity.RateQuote, error)

	// FetchTable retrieves the full rate table published for a date.
	// Returns entity.ErrNoPublication when there is none.
	FetchTable(ctx context.Context, date time.Time) (*entity.RateTable, error)

	// FetchLatestTable retrieves the most recently published rate table.
	FetchLatestTable(ctx context.Context) (*entity.RateTable, error)
}
