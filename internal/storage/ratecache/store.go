// Package ratecache persists the current rate snapshot as a single JSON
// document that is replaced wholesale on every save.
package ratecache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

const snapshotFileName = "rates.json"

// Store reads and writes the rate snapshot. Save is a temp-file-then-rename
// replace, so a concurrent Load sees either the previous or the new complete
// snapshot, never a partial write. Saves are serialized because they share
// the temp path.
type Store struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create rate cache dir")
	}

	return &Store{path: filepath.Join(dir, snapshotFileName), logger: logger}, nil
}

type storedSnapshot struct {
	Pairs       map[string]storedRate `json:"pairs"`
	LastUpdated time.Time             `json:"last_updated"`
}

type storedRate struct {
	Rate      string    `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
}

// Load reads the persisted snapshot. A missing file yields the built-in
// bootstrap snapshot; a corrupt file is moved aside and the bootstrap
// snapshot is substituted, so startup never fails on bad cache data.
func (s *Store) Load() (*domain.RateSnapshot, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.BootstrapSnapshot(), nil
		}

		return nil, errors.Wrap(err, "read rate snapshot")
	}

	snapshot, err := decodeSnapshot(payload)
	if err != nil {
		s.discardCorrupt(&domain.SnapshotCorruptError{Reason: err.Error()})

		return domain.BootstrapSnapshot(), nil
	}

	return snapshot, nil
}

// Save atomically replaces the persisted snapshot. On failure the previous
// file remains fully intact.
func (s *Store) Save(snapshot *domain.RateSnapshot) error {
	stored := storedSnapshot{
		Pairs:       make(map[string]storedRate, len(snapshot.Pairs)),
		LastUpdated: snapshot.LastUpdated.UTC(),
	}
	for key, rec := range snapshot.Pairs {
		stored.Pairs[key] = storedRate{
			Rate:      rec.Rate.String(),
			UpdatedAt: rec.UpdatedAt,
			Source:    rec.Source,
		}
	}

	payload, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode rate snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write rate snapshot temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)

		return errors.Wrap(err, "persist rate snapshot")
	}

	return nil
}

func decodeSnapshot(payload []byte) (*domain.RateSnapshot, error) {
	var stored storedSnapshot
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	snapshot := &domain.RateSnapshot{
		Pairs:       make(map[string]domain.RateRecord, len(stored.Pairs)),
		LastUpdated: stored.LastUpdated,
	}
	for key, sr := range stored.Pairs {
		pair, err := domain.ParsePairKey(key)
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(sr.Rate)
		if err != nil {
			return nil, errors.Wrapf(err, "decode rate for %s", key)
		}
		rec, err := domain.NewRateRecord(pair, rate, sr.UpdatedAt, sr.Source)
		if err != nil {
			return nil, err
		}
		snapshot.Pairs[pair.String()] = rec
	}

	return snapshot, nil
}

// discardCorrupt moves the unreadable file aside so the next save starts
// clean, keeping the bad payload around for inspection.
func (s *Store) discardCorrupt(cause *domain.SnapshotCorruptError) {
	s.logger.Warn("discarding corrupt rate snapshot, falling back to bootstrap rates",
		zap.String("path", s.path), zap.Error(cause))

	if err := os.Rename(s.path, s.path+".corrupt"); err != nil {
		s.logger.Warn("failed to move corrupt rate snapshot aside", zap.Error(err))
	}
}
