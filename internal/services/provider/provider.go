// Package provider fetches exchange rates from external sources and merges
// them into rate snapshots.
package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateProvider supplies rates in the canonical <ASSET>_<REFERENCE> form,
// e.g. {"BTC_USD": 60000}. Values are strictly positive. Implementations
// normalize whatever shape their upstream returns at ingestion, so lookup
// sites never branch on response shapes.
type RateProvider interface {
	Name() string
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}
