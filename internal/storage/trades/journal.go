// Package trades keeps an append-only journal of executed buy and sell
// operations in a WAL.
package trades

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	segmentLimit = 1000
	maxSegments  = 100

	tradeKeyPrefix = "trade_"
)

// Record is one executed trade.
type Record struct {
	ID         string    `json:"id"`
	UserID     int       `json:"user_id"`
	Action     string    `json:"action"`
	Pair       string    `json:"pair"`
	Amount     string    `json:"amount"`
	Rate       string    `json:"rate"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Journal persists trade records in a WAL.
type Journal struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewJournal initializes a WAL-backed trade journal in dir.
func NewJournal(dir string) (*Journal, error) {
	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "trade_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade journal WAL")
	}

	return &Journal{wal: wal}, nil
}

// Append writes the trade record to the WAL.
func (j *Journal) Append(rec Record) error {
	if j == nil || j.wal == nil {
		return errors.New("trade journal is not initialized")
	}
	if rec.ID == "" {
		return fmt.Errorf("trade record id is required")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal trade record")
	}

	key := tradeKeyPrefix + strconv.Itoa(rec.UserID)

	j.mu.Lock()
	defer j.mu.Unlock()

	nextIndex := j.wal.CurrentIndex() + 1

	return j.wal.Write(nextIndex, key, payload)
}

// ForUser returns the user's trades in execution order, oldest first.
func (j *Journal) ForUser(userID int) ([]Record, error) {
	if j == nil || j.wal == nil {
		return nil, errors.New("trade journal is not initialized")
	}

	key := tradeKeyPrefix + strconv.Itoa(userID)

	j.mu.RLock()
	defer j.mu.RUnlock()

	var records []Record
	for msg := range j.wal.Iterator() {
		if msg.Key != key {
			continue
		}

		var rec Record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			return nil, errors.Wrap(err, "decode trade record")
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close releases the underlying WAL.
func (j *Journal) Close() error {
	if j == nil || j.wal == nil {
		return nil
	}

	return j.wal.Close()
}
