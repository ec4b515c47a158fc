package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/mjaworski/tripsettle/internal/domain/entity"
	"github.com/mjaworski/tripsettle/internal/utils"
)

const ratePrefix = "rate:"

// BadgerRateStore implements the rate store interface on top of BadgerDB,
// so cached quotes survive a process restart within their TTL.
type BadgerRateStore struct {
	db    *badger.DB
	ttl   time.Duration
	clock utils.Clock
}

// NewBadgerRateStore creates a new BadgerDB rate store. A non-positive ttl
// defaults to 24h; a nil clock defaults to the system clock.
func NewBadgerRateStore(db *badger.DB, ttl time.Duration, clock utils.Clock) *BadgerRateStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}

	return &BadgerRateStore{db: db, ttl: ttl, clock: clock}
}

func rateKey(currency string, date time.Time) []byte {
	return []byte(ratePrefix + currency + ":" + date.Format(entity.DateLayout))
}

// Get retrieves a cached quote, or (nil, nil) when absent or expired.
func (s *BadgerRateStore) Get(_ context.Context, currency string, date time.Time) (*entity.RateQuote, error) {
	var quote entity.RateQuote

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rateKey(currency, date))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &quote)
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve rate quote: %w", err)
	}

	// Badger drops expired entries lazily; the CachedAt check keeps the
	// TTL exact and honors an injected clock in tests.
	if s.clock.Now().Sub(quote.CachedAt) > s.ttl {
		return nil, nil
	}

	return &quote, nil
}

// Put stores a quote. The Badger entry carries the same TTL so stale data
// is eventually dropped even without a DeleteExpired sweep.
func (s *BadgerRateStore) Put(_ context.Context, quote *entity.RateQuote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal rate quote: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(ratePrefix+quote.Key()), data).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("failed to store rate quote: %w", err)
	}

	return nil
}

// DeleteExpired removes entries past their TTL and returns how many were
// removed.
func (s *BadgerRateStore) DeleteExpired(_ context.Context) (int, error) {
	expired, err := s.collectExpiredKeys()
	if err != nil {
		return 0, err
	}

	count := 0
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to delete expired rate quotes: %w", err)
	}

	return count, nil
}

func (s *BadgerRateStore) collectExpiredKeys() ([][]byte, error) {
	var expired [][]byte
	now := s.clock.Now()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(ratePrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var quote entity.RateQuote
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &quote)
			})
			if err != nil {
				return err
			}

			if now.Sub(quote.CachedAt) > s.ttl {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rate quotes: %w", err)
	}

	return expired, nil
}

// Clear removes all cached quotes.
func (s *BadgerRateStore) Clear(_ context.Context) error {
	if err := s.db.DropPrefix([]byte(ratePrefix)); err != nil {
		return fmt.Errorf("failed to clear rate quotes: %w", err)
	}
	return nil
}

// Stats reports the current store contents with keys in sorted order.
func (s *BadgerRateStore) Stats(_ context.Context) (entity.CacheStats, error) {
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(ratePrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			keys = append(keys, key[len(ratePrefix):])
		}
		return nil
	})
	if err != nil {
		return entity.CacheStats{}, fmt.Errorf("failed to scan rate quotes: %w", err)
	}

	sort.Strings(keys)

	return entity.CacheStats{
		Size:    len(keys),
		Entries: keys,
	}, nil
}
