// Package portfolios persists all user portfolios as one JSON document.
// The ledger owns the load-mutate-save cycle.
package portfolios

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

const portfoliosFileName = "portfolios.json"

// Store reads and writes the portfolios document with an atomic replace.
type Store struct {
	path string
}

// NewStore creates a portfolio store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create portfolios dir")
	}

	return &Store{path: filepath.Join(dir, portfoliosFileName)}, nil
}

type storedPortfolio struct {
	UserID  int               `json:"user_id"`
	Wallets map[string]string `json:"wallets"`
}

// Load reads all portfolios keyed by user id. A missing file yields an
// empty map.
func (s *Store) Load() (map[int]*domain.Portfolio, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[int]*domain.Portfolio{}, nil
		}

		return nil, errors.Wrap(err, "read portfolios")
	}

	var stored map[string]storedPortfolio
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, errors.Wrap(err, "decode portfolios")
	}

	out := make(map[int]*domain.Portfolio, len(stored))
	for _, sp := range stored {
		wallets := make([]*domain.Wallet, 0, len(sp.Wallets))
		for code, balance := range sp.Wallets {
			bal, err := decimal.NewFromString(balance)
			if err != nil {
				return nil, errors.Wrapf(err, "decode balance for user %d wallet %s", sp.UserID, code)
			}
			w, err := domain.RestoreWallet(code, bal)
			if err != nil {
				return nil, errors.Wrapf(err, "restore wallet for user %d", sp.UserID)
			}
			wallets = append(wallets, w)
		}
		out[sp.UserID] = domain.RestorePortfolio(sp.UserID, wallets)
	}

	return out, nil
}

// Save atomically replaces the portfolios document.
func (s *Store) Save(portfolios map[int]*domain.Portfolio) error {
	stored := make(map[string]storedPortfolio, len(portfolios))
	for id, p := range portfolios {
		wallets := make(map[string]string, len(p.Wallets()))
		for _, w := range p.Wallets() {
			wallets[w.Code()] = w.Balance().String()
		}
		stored[strconv.Itoa(id)] = storedPortfolio{UserID: id, Wallets: wallets}
	}

	payload, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode portfolios")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write portfolios temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)

		return errors.Wrap(err, "persist portfolios")
	}

	return nil
}
