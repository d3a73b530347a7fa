package domain

import (
	"sort"
	"strings"
)

// Portfolio is a user's collection of wallets, one per currency code.
type Portfolio struct {
	userID  int
	wallets map[string]*Wallet
}

// NewPortfolio creates an empty portfolio for the user.
func NewPortfolio(userID int) *Portfolio {
	return &Portfolio{userID: userID, wallets: make(map[string]*Wallet)}
}

// RestorePortfolio rebuilds a portfolio from persisted wallets.
func RestorePortfolio(userID int, wallets []*Wallet) *Portfolio {
	p := NewPortfolio(userID)
	for _, w := range wallets {
		p.wallets[w.Code()] = w
	}

	return p
}

// UserID returns the owning user's id.
func (p *Portfolio) UserID() int {
	return p.userID
}

// Wallet returns the wallet for the code, if present.
func (p *Portfolio) Wallet(code string) (*Wallet, bool) {
	w, ok := p.wallets[strings.ToUpper(strings.TrimSpace(code))]

	return w, ok
}

// EnsureWallet returns the wallet for the code, lazily creating an empty
// one on first use.
func (p *Portfolio) EnsureWallet(code string) *Wallet {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if w, ok := p.wallets[normalized]; ok {
		return w
	}

	w := NewWallet(normalized)
	p.wallets[normalized] = w

	return w
}

// Wallets returns the wallets sorted by currency code.
func (p *Portfolio) Wallets() []*Wallet {
	out := make([]*Wallet, 0, len(p.wallets))
	for _, w := range p.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })

	return out
}
