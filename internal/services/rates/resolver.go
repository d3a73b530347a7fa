// Package rates resolves conversion rates between any two registered
// currencies from the cached snapshot.
package rates

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

type snapshotLoader interface {
	Load() (*domain.RateSnapshot, error)
}

type refresher interface {
	Refresh(ctx context.Context) (*domain.RateSnapshot, error)
}

// Resolver answers getRate queries: the factor such that
// amount(from) * rate = amount(to). Staleness triggers one synchronous
// refresh attempt; a failed refresh degrades to the cached data instead of
// failing the call.
type Resolver struct {
	store     snapshotLoader
	refresher refresher
	reference string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewResolver creates a resolver triangulating through the given reference
// currency with the given snapshot TTL.
func NewResolver(store snapshotLoader, refresher refresher, reference string, ttl time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:     store,
		refresher: refresher,
		reference: reference,
		ttl:       ttl,
		logger:    logger,
	}
}

// GetRate resolves the conversion rate for from->to. Resolution order:
// identity, direct pair, inverse pair, then exactly one triangulation hop
// through the reference currency. Unknown codes fail with
// CurrencyNotFoundError, unresolvable pairs with RateUnavailableError.
func (r *Resolver) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	fromCur, err := domain.ResolveCurrency(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	toCur, err := domain.ResolveCurrency(to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if fromCur.Code == toCur.Code {
		return decimal.NewFromInt(1), nil
	}

	snapshot, err := r.store.Load()
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "load rate snapshot")
	}

	if snapshot.Stale(r.ttl) {
		fresh, err := r.refresher.Refresh(ctx)
		if err != nil {
			// staleness degrades quality, it does not block functionality
			r.logger.Warn("rate refresh failed, serving cached snapshot",
				zap.Time("last_updated", snapshot.LastUpdated), zap.Error(err))
		} else {
			snapshot = fresh
		}
	}

	if rate, ok := lookup(snapshot, fromCur.Code, toCur.Code); ok {
		return rate, nil
	}

	// one hop through the reference currency, never chained further
	legFrom, okFrom := lookup(snapshot, fromCur.Code, r.reference)
	legTo, okTo := lookup(snapshot, r.reference, toCur.Code)
	if !okFrom || !okTo {
		return decimal.Decimal{}, &domain.RateUnavailableError{From: fromCur.Code, To: toCur.Code}
	}

	return legFrom.Mul(legTo), nil
}

// Reference returns the settlement currency code.
func (r *Resolver) Reference() string {
	return r.reference
}

// lookup resolves one leg: direct pair first, then the inverse.
func lookup(snapshot *domain.RateSnapshot, from, to string) (decimal.Decimal, bool) {
	pair := domain.PairKey{From: from, To: to}
	if rate, ok := snapshot.Rate(pair); ok {
		return rate, true
	}
	if rate, ok := snapshot.Rate(pair.Inverse()); ok {
		return decimal.NewFromInt(1).Div(rate), true
	}

	return decimal.Decimal{}, false
}
