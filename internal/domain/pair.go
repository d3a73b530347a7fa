// Package domain defines the core types of the portfolio tracker.
package domain

import (
	"fmt"
	"strings"
)

// PairKey is an ordered currency pair. The canonical storage direction for
// fetched rates is <asset>_<reference>, e.g. BTC_USD: one unit of From costs
// Rate units of To.
type PairKey struct {
	From string
	To   string
}

// ParsePairKey parses the FROM_TO wire form into a PairKey. It is applied
// once at ingestion; pair strings are never re-split at lookup sites.
func ParsePairKey(s string) (PairKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return PairKey{}, fmt.Errorf("malformed pair key %q", s)
	}

	return PairKey{From: strings.ToUpper(parts[0]), To: strings.ToUpper(parts[1])}, nil
}

// String returns the string representation.
func (p PairKey) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Inverse returns the pair with its direction flipped.
func (p PairKey) Inverse() PairKey {
	return PairKey{From: p.To, To: p.From}
}
