// Package updater periodically refreshes the rate snapshot in the
// background.
package updater

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

type refresher interface {
	Refresh(ctx context.Context) (*domain.RateSnapshot, error)
}

// Updater drives periodic snapshot refreshes. Fetch failures are logged
// and the loop keeps running; only context cancellation stops it.
type Updater struct {
	refresher refresher
	interval  time.Duration
	logger    *zap.Logger
}

func New(refresher refresher, interval time.Duration, logger *zap.Logger) *Updater {
	return &Updater{refresher: refresher, interval: interval, logger: logger}
}

// Run refreshes once immediately, then on every tick until ctx is done.
func (u *Updater) Run(ctx context.Context) error {
	u.refresh(ctx)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			u.logger.Info("rate updater stopped")

			return nil
		case <-ticker.C:
			u.refresh(ctx)
		}
	}
}

func (u *Updater) refresh(ctx context.Context) {
	if _, err := u.refresher.Refresh(ctx); err != nil {
		u.logger.Warn("rate refresh cycle failed", zap.Error(err))
	}
}
