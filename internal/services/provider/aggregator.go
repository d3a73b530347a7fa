package provider

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

type snapshotSaver interface {
	Save(snapshot *domain.RateSnapshot) error
}

// Aggregator fans out to the configured providers, merges their output
// into one snapshot and persists it. A failing provider is logged and
// skipped; only all providers failing surfaces an error, in which case the
// previously persisted snapshot is left untouched.
type Aggregator struct {
	providers []RateProvider
	store     snapshotSaver
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAggregator creates an aggregator over the given providers. The timeout
// bounds each provider call so one slow source cannot stall the cycle.
func NewAggregator(providers []RateProvider, store snapshotSaver, timeout time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{providers: providers, store: store, timeout: timeout, logger: logger}
}

// Refresh runs one fetch cycle. Providers are queried concurrently; merge
// order follows the configured provider order, later providers overwriting
// earlier ones for the same pair. All merged records carry the cycle's
// start time as their timestamp.
func (a *Aggregator) Refresh(ctx context.Context) (*domain.RateSnapshot, error) {
	started := time.Now().UTC()
	results := make([]map[string]decimal.Decimal, len(a.providers))

	g := new(errgroup.Group)
	for i, p := range a.providers {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			rates, err := p.FetchRates(fetchCtx)
			if err != nil {
				a.logger.Warn("rate provider failed, continuing with the rest",
					zap.Error(&domain.ProviderFetchError{Provider: p.Name(), Reason: err.Error()}))
				return nil
			}

			results[i] = rates
			return nil
		})
	}
	g.Wait()

	merged := make(map[string]domain.RateRecord)
	for i, rates := range results {
		source := a.providers[i].Name()
		for key, rate := range rates {
			pair, err := domain.ParsePairKey(key)
			if err != nil {
				a.logger.Warn("provider returned malformed pair, skipping",
					zap.String("provider", source), zap.String("pair", key))
				continue
			}

			rec, err := domain.NewRateRecord(pair, rate, started, source)
			if err != nil {
				a.logger.Warn("provider returned invalid rate, skipping",
					zap.String("provider", source), zap.String("pair", key), zap.Error(err))
				continue
			}
			merged[pair.String()] = rec
		}
	}

	if len(merged) == 0 {
		return nil, errors.New("all rate providers failed, keeping previous snapshot")
	}

	snapshot := &domain.RateSnapshot{Pairs: merged, LastUpdated: started}
	if err := a.store.Save(snapshot); err != nil {
		return nil, errors.Wrap(err, "persist merged snapshot")
	}

	a.logger.Info("rate snapshot refreshed",
		zap.Int("pairs", len(merged)), zap.Time("cycle_started", started))

	return snapshot, nil
}
