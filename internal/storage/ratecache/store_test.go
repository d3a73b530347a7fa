package ratecache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	return store, dir
}

func testSnapshot(t *testing.T) *domain.RateSnapshot {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	rec, err := domain.NewRateRecord(domain.PairKey{From: "BTC", To: "USD"}, decimal.NewFromInt(60000), now, "binance")
	require.NoError(t, err)

	return &domain.RateSnapshot{
		Pairs:       map[string]domain.RateRecord{rec.Pair.String(): rec},
		LastUpdated: now,
	}
}

func TestLoadMissingFileReturnsBootstrap(t *testing.T) {
	store, _ := newTestStore(t)

	snap, err := store.Load()
	require.NoError(t, err)

	rate, ok := snap.Rate(domain.PairKey{From: "EUR", To: "USD"})
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.NewFromFloat(1.07)))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	want := testSnapshot(t)

	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.True(t, got.LastUpdated.Equal(want.LastUpdated))

	rate, ok := got.Rate(domain.PairKey{From: "BTC", To: "USD"})
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.NewFromInt(60000)))
	require.Equal(t, "binance", got.Pairs["BTC_USD"].Source)
}

func TestLoadCorruptFileFallsBackToBootstrap(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, snapshotFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	snap, err := store.Load()
	require.NoError(t, err)

	_, ok := snap.Rate(domain.PairKey{From: "BTC", To: "USD"})
	require.True(t, ok, "bootstrap snapshot substituted")

	// the corrupt file was moved aside, so a subsequent save starts clean
	_, err = os.Stat(path + ".corrupt")
	require.NoError(t, err)

	require.NoError(t, store.Save(testSnapshot(t)))
	reloaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "binance", reloaded.Pairs["BTC_USD"].Source)
}

func TestConcurrentSavesKeepSnapshotDecodable(t *testing.T) {
	store, _ := newTestStore(t)
	want := testSnapshot(t)

	const writers = 20
	errCh := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- store.Save(want)
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "binance", got.Pairs["BTC_USD"].Source)
}

func TestLoadRejectsNonPositivePersistedRate(t *testing.T) {
	store, dir := newTestStore(t)
	payload := `{"pairs":{"BTC_USD":{"rate":"-1","updated_at":"2026-01-01T00:00:00Z","source":"x"}},"last_updated":"2026-01-01T00:00:00Z"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFileName), []byte(payload), 0o644))

	snap, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "bootstrap", snap.Pairs["BTC_USD"].Source)
}
