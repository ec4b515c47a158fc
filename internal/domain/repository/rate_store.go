// Package repository internal/domain/repository/rate_store.go
package repository

import (
	"context"
	"time"

	"github.com/mjaworski/tripsettle/internal/domain/entity"
)

// RateStore is the backing store of the rate cache. Implementations exist
// in memory and on top of BadgerDB; both apply the same TTL semantics.
type RateStore interface {
	// Get returns the cached quote for a currency and lookup date, or
	// (nil, nil) when no live entry exists.
	Get(ctx context.Context, currency string, date time.Time) (*entity.RateQuote, error)

	// Put stores a quote. Writes are idempotent; last write wins.
	Put(ctx context.Context, quote *entity.RateQuote) error

	// DeleteExpired removes entries past their TTL and returns how many
	// were removed.
	DeleteExpired(ctx context.Context) (int, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Stats reports the current store contents.
	Stats(ctx context.Context) (entity.CacheStats, error)
}
