// Package cache internal/infrastructure/cache/rate_cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/mjaworski/tripsettle/internal/domain/repository"
	"github.com/mjaworski/tripsettle/internal/domain/service"
	"github.com/mjaworski/tripsettle/internal/domain/workday"
	"github.com/mjaworski/tripsettle/internal/infrastructure/logger"
	"github.com/mjaworski/tripsettle/internal/utils"
	"golang.org/x/sync/singleflight"
)

// RateCache resolves PLN mid rates for settlement dates. It applies the
// last-working-day lookup rule, serves repeat lookups from its store and
// consults the rate source only on a miss or after expiry. Concurrent
// misses for the same key are collapsed into a single fetch.
type RateCache struct {
	store  repository.RateStore
	source service.RateSource
	group  singleflight.Group
	clock  utils.Clock
	logger logger.Logger
}

// NewRateCache creates a new rate cache on top of a store and a source.
func NewRateCache(store repository.RateStore, source service.RateSource, clock utils.Clock, log logger.Logger) *RateCache {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	if log == nil {
		log = logger.Default()
	}

	return &RateCache{
		store:  store,
		source: source,
		clock:  clock,
		logger: log,
	}
}

// GetRate returns the mid rate to convert the given currency to PLN for a
// settlement date. The rate is looked up for the last working day strictly
// before the settlement date, per the tax rule.
func (c *RateCache) GetRate(ctx context.Context, code string, settlementDate time.Time) (*entity.RateQuote, error) {
	currency := normalizeCode(code)
	effectiveDate := workday.LastWorkingDayBefore(settlementDate)

	quote, err := c.store.Get(ctx, currency, effectiveDate)
	if err != nil {
		// A broken store must not block settlement; fall through to a fetch.
		c.logger.Warn("Rate store lookup failed", map[string]interface{}{
			"currency": currency,
			"date":     effectiveDate.Format(entity.DateLayout),
			"error":    err.Error(),
		})
	}
	if quote != nil {
		c.logger.Debug("Rate cache hit", map[string]interface{}{
			"currency": currency,
			"date":     effectiveDate.Format(entity.DateLayout),
			"mid":      quote.Mid.String(),
		})
		return quote, nil
	}

	key := storeKey(currency, effectiveDate)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, currency, effectiveDate)
	})
	if err != nil {
		return nil, err
	}

	return v.(*entity.RateQuote), nil
}

func (c *RateCache) fetch(ctx context.Context, currency string, effectiveDate time.Time) (*entity.RateQuote, error) {
	quote, err := c.source.FetchRate(ctx, currency, effectiveDate)
	if errors.Is(err, entity.ErrNoPublication) {
		// NBP published no table that day (an unanticipated holiday);
		// retry with most-recent-available semantics.
		c.logger.Info("No table published for effective date, using latest publication", map[string]interface{}{
			"currency": currency,
			"date":     effectiveDate.Format(entity.DateLayout),
		})

		quote, err = c.source.FetchLatest(ctx, currency)
		if err == nil {
			quote.Fallback = true
		}
	}
	if err != nil {
		if errors.Is(err, entity.ErrRateUnavailable) || errors.Is(err, entity.ErrNoPublication) {
			return nil, fmt.Errorf("%w: no %s rate for %s", entity.ErrRateUnavailable,
				currency, effectiveDate.Format(entity.DateLayout))
		}
		return nil, fmt.Errorf("failed to fetch %s rate: %w", currency, err)
	}

	quote.RequestedDate = effectiveDate
	quote.CachedAt = c.clock.Now()

	if err := c.store.Put(ctx, quote); err != nil {
		// The quote is still usable; only caching failed.
		c.logger.Warn("Failed to cache rate quote", map[string]interface{}{
			"currency": currency,
			"date":     effectiveDate.Format(entity.DateLayout),
			"error":    err.Error(),
		})
	}

	c.logger.Info("Rate fetched", map[string]interface{}{
		"currency":  currency,
		"date":      effectiveDate.Format(entity.DateLayout),
		"rate_date": quote.RateDate.Format(entity.DateLayout),
		"mid":       quote.Mid.String(),
		"fallback":  quote.Fallback,
	})

	return quote, nil
}

// Warm preloads the full NBP table for a settlement date's effective lookup
// date, so a multi-currency settlement issues one table request instead of
// one request per currency. Returns the number of quotes cached.
func (c *RateCache) Warm(ctx context.Context, settlementDate time.Time) (int, error) {
	effectiveDate := workday.LastWorkingDayBefore(settlementDate)

	table, err := c.source.FetchTable(ctx, effectiveDate)
	if errors.Is(err, entity.ErrNoPublication) {
		table, err = c.source.FetchLatestTable(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rate table: %w", err)
	}

	fallback := !table.EffectiveDate.Equal(effectiveDate)
	cachedAt := c.clock.Now()
	count := 0

	for _, rate := range table.Rates {
		quote := &entity.RateQuote{
			Currency:      normalizeCode(rate.Code),
			RequestedDate: effectiveDate,
			RateDate:      table.EffectiveDate,
			Mid:           rate.Mid,
			CachedAt:      cachedAt,
			Fallback:      fallback,
		}

		if err := c.store.Put(ctx, quote); err != nil {
			c.logger.Warn("Failed to cache table rate", map[string]interface{}{
				"currency": quote.Currency,
				"error":    err.Error(),
			})
			continue
		}
		count++
	}

	c.logger.Info("Rate cache warmed", map[string]interface{}{
		"date":      effectiveDate.Format(entity.DateLayout),
		"rate_date": table.EffectiveDate.Format(entity.DateLayout),
		"cached":    count,
	})

	return count, nil
}

// ClearExpired removes expired entries from the store and returns how many
// were removed.
func (c *RateCache) ClearExpired(ctx context.Context) (int, error) {
	return c.store.DeleteExpired(ctx)
}

// ClearAll removes all cached quotes.
func (c *RateCache) ClearAll(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Stats reports the current cache contents.
func (c *RateCache) Stats(ctx context.Context) (entity.CacheStats, error) {
	return c.store.Stats(ctx)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
