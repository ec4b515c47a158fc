package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateQuote is a resolved NBP mid rate for a currency and lookup date,
// as stored by the rate cache.
type RateQuote struct {
	// Currency is the upper-case ISO 4217 style code, e.g. "EUR".
	Currency string `json:"currency"`

	// RequestedDate is the date the rate was looked up for: the last
	// working day strictly before the settlement date.
	RequestedDate time.Time `json:"requested_date"`

	// RateDate is the effective date of the NBP table the rate came from.
	// It differs from RequestedDate when no table was published that day.
	RateDate time.Time `json:"rate_date"`

	// Mid is the published mid-market rate in PLN per unit of Currency.
	Mid decimal.Decimal `json:"mid"`

	CachedAt time.Time `json:"cached_at"`

	// Fallback marks a quote resolved from the most recently published
	// table because none existed for RequestedDate.
	Fallback bool `json:"fallback"`
}

// Key returns the cache key for this quote.
func (q *RateQuote) Key() string {
	return q.Currency + ":" + q.RequestedDate.Format(DateLayout)
}

// RateTable is a full NBP exchange-rate table: one publication date and the
// mid rates of every listed currency.
type RateTable struct {
	No            string      `json:"no"`
	EffectiveDate time.Time   `json:"effective_date"`
	Rates         []TableRate `json:"rates"`
}

// TableRate is a single row of a RateTable.
type TableRate struct {
	Currency string          `json:"currency"`
	Code     string          `json:"code"`
	Mid      decimal.Decimal `json:"mid"`
}

// CacheStats describes the current contents of a rate store.
type CacheStats struct {
	Size    int      `json:"size"`
	Entries []string `json:"entries"`
}
