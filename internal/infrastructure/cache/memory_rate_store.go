package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/mjaworski/tripsettle/internal/utils"
)

// MemoryRateStore is a thread-safe in-memory rate store with TTL expiry.
type MemoryRateStore struct {
	mutex   sync.RWMutex
	entries map[string]*entity.RateQuote
	ttl     time.Duration
	clock   utils.Clock
}

// NewMemoryRateStore creates a new in-memory rate store. A non-positive ttl
// defaults to 24h, matching the once-daily NBP publication cycle. A nil
// clock defaults to the system clock.
func NewMemoryRateStore(ttl time.Duration, clock utils.Clock) *MemoryRateStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}

	return &MemoryRateStore{
		entries: make(map[string]*entity.RateQuote),
		ttl:     ttl,
		clock:   clock,
	}
}

func storeKey(currency string, date time.Time) string {
	return currency + ":" + date.Format(entity.DateLayout)
}

// Get returns the live quote for a currency and lookup date, or (nil, nil)
// when none exists or the entry has expired.
func (s *MemoryRateStore) Get(_ context.Context, currency string, date time.Time) (*entity.RateQuote, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	quote, exists := s.entries[storeKey(currency, date)]
	if !exists || s.clock.Now().Sub(quote.CachedAt) > s.ttl {
		return nil, nil
	}

	return quote, nil
}

// Put stores a quote, replacing any previous entry for the same key.
func (s *MemoryRateStore) Put(_ context.Context, quote *entity.RateQuote) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries[quote.Key()] = quote
	return nil
}

// DeleteExpired removes expired entries and returns how many were removed.
func (s *MemoryRateStore) DeleteExpired(_ context.Context) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	count := 0
	now := s.clock.Now()

	for key, quote := range s.entries {
		if now.Sub(quote.CachedAt) > s.ttl {
			delete(s.entries, key)
			count++
		}
	}

	return count, nil
}

// Clear removes all entries.
func (s *MemoryRateStore) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string]*entity.RateQuote)
	return nil
}

// Stats reports the current store contents with keys in sorted order.
func (s *MemoryRateStore) Stats(_ context.Context) (entity.CacheStats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return entity.CacheStats{
		Size:    len(keys),
		Entries: keys,
	}, nil
}
