package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RateRecord is one cached conversion rate: one unit of Pair.From costs
// Rate units of Pair.To.
type RateRecord struct {
	Pair      PairKey
	Rate      decimal.Decimal
	UpdatedAt time.Time
	Source    string
}

// NewRateRecord validates the rate at ingestion. Zero and negative rates
// are rejected here so a snapshot never holds an unusable record.
func NewRateRecord(pair PairKey, rate decimal.Decimal, updatedAt time.Time, source string) (RateRecord, error) {
	if !rate.IsPositive() {
		return RateRecord{}, fmt.Errorf("rate for %s must be positive, got %s", pair.String(), rate.String())
	}

	return RateRecord{Pair: pair, Rate: rate, UpdatedAt: updatedAt.UTC(), Source: source}, nil
}

// RateSnapshot is one complete, atomically replaceable set of cached rates.
// Pairs is keyed by the PairKey wire form.
type RateSnapshot struct {
	Pairs       map[string]RateRecord
	LastUpdated time.Time
}

// Rate returns the cached rate for the exact pair direction.
func (s *RateSnapshot) Rate(pair PairKey) (decimal.Decimal, bool) {
	rec, ok := s.Pairs[pair.String()]
	if !ok {
		return decimal.Decimal{}, false
	}

	return rec.Rate, true
}

// Stale reports whether the snapshot is older than the given TTL.
func (s *RateSnapshot) Stale(ttl time.Duration) bool {
	return time.Since(s.LastUpdated) > ttl
}

// BootstrapSnapshot returns the built-in default rates so the system is
// usable before the first successful fetch. Its zero LastUpdated makes it
// immediately stale, which forces a refresh attempt on first use.
func BootstrapSnapshot() *RateSnapshot {
	pairs := map[string]decimal.Decimal{
		"EUR_USD": decimal.NewFromFloat(1.07),
		"GBP_USD": decimal.NewFromFloat(1.25),
		"JPY_USD": decimal.NewFromFloat(0.0067),
		"BTC_USD": decimal.NewFromInt(60000),
		"ETH_USD": decimal.NewFromInt(3000),
	}

	snapshot := &RateSnapshot{Pairs: make(map[string]RateRecord, len(pairs))}
	for key, rate := range pairs {
		pair, err := ParsePairKey(key)
		if err != nil {
			panic(err)
		}
		rec, err := NewRateRecord(pair, rate, time.Time{}, "bootstrap")
		if err != nil {
			panic(err)
		}
		snapshot.Pairs[key] = rec
	}

	return snapshot
}
