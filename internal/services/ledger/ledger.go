// Package ledger executes buy and sell operations against user portfolios,
// settling every trade through the reference currency.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/internal/storage/trades"
)

// startingReferenceBalance seeds a freshly created portfolio.
var startingReferenceBalance = decimal.NewFromInt(1000)

const (
	actionBuy  = "BUY"
	actionSell = "SELL"
)

type rateResolver interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type portfolioStore interface {
	Load() (map[int]*domain.Portfolio, error)
	Save(portfolios map[int]*domain.Portfolio) error
}

type tradeJournal interface {
	Append(rec trades.Record) error
	ForUser(userID int) ([]trades.Record, error)
}

// Ledger owns the load-mutate-save cycle on portfolios. A trade quotes the
// resolver exactly once and applies both wallet legs only after the funds
// check passes, so no partial application is ever persisted.
type Ledger struct {
	resolver  rateResolver
	store     portfolioStore
	journal   tradeJournal
	reference string
	logger    *zap.Logger
}

// New creates a ledger settling in the given reference currency. The
// journal may be nil; trades then go unrecorded but still execute.
func New(resolver rateResolver, store portfolioStore, journal tradeJournal, reference string, logger *zap.Logger) *Ledger {
	return &Ledger{
		resolver:  resolver,
		store:     store,
		journal:   journal,
		reference: reference,
		logger:    logger,
	}
}

// Portfolio returns the user's portfolio, lazily creating one with the
// starting reference balance on first access.
func (l *Ledger) Portfolio(userID int) (*domain.Portfolio, error) {
	portfolios, err := l.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load portfolios")
	}

	if p, ok := portfolios[userID]; ok {
		return p, nil
	}

	p := domain.NewPortfolio(userID)
	if err := p.EnsureWallet(l.reference).Deposit(startingReferenceBalance); err != nil {
		return nil, err
	}
	portfolios[userID] = p
	if err := l.store.Save(portfolios); err != nil {
		return nil, errors.Wrap(err, "persist new portfolio")
	}

	l.logger.Info("portfolio created",
		zap.Int("user_id", userID),
		zap.String("starting_balance", startingReferenceBalance.String()+" "+l.reference))

	return p, nil
}

// Buy purchases amount units of the currency, debiting the reference
// wallet at the resolver's current rate.
func (l *Ledger) Buy(ctx context.Context, userID int, code string, amount decimal.Decimal) error {
	cur, err := domain.ResolveCurrency(code)
	if err != nil {
		return err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	// single quote per operation: the same rate backs the funds check and
	// the settlement
	rate, err := l.resolver.GetRate(ctx, cur.Code, l.reference)
	if err != nil {
		return err
	}
	cost := amount.Mul(rate).Round(6)
	if cost.IsZero() {
		return errors.Errorf("amount too small: %s %s costs no %s at rate %s",
			amount.String(), cur.Code, l.reference, rate.String())
	}

	portfolios, err := l.store.Load()
	if err != nil {
		return errors.Wrap(err, "load portfolios")
	}
	p, ok := portfolios[userID]
	if !ok {
		p = domain.NewPortfolio(userID)
		if err := p.EnsureWallet(l.reference).Deposit(startingReferenceBalance); err != nil {
			return err
		}
		portfolios[userID] = p
	}

	refWallet := p.EnsureWallet(l.reference)
	if refWallet.Balance().LessThan(cost) {
		return &domain.InsufficientFundsError{
			Available: refWallet.Balance(),
			Required:  cost,
			Code:      l.reference,
		}
	}

	if err := refWallet.Withdraw(cost); err != nil {
		return err
	}
	if err := p.EnsureWallet(cur.Code).Deposit(amount); err != nil {
		return err
	}

	if err := l.store.Save(portfolios); err != nil {
		return errors.Wrap(err, "persist portfolio after buy")
	}

	l.record(userID, actionBuy, cur.Code, amount, rate)
	l.logger.Info("buy executed",
		zap.Int("user_id", userID),
		zap.String("currency", cur.Code),
		zap.String("amount", amount.String()),
		zap.String("rate", rate.String()),
		zap.String("cost", cost.String()))

	return nil
}

// Sell disposes amount units of the currency and credits the proceeds to
// the reference wallet. Returns the revenue in the reference currency.
func (l *Ledger) Sell(ctx context.Context, userID int, code string, amount decimal.Decimal) (decimal.Decimal, error) {
	cur, err := domain.ResolveCurrency(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Decimal{}, err
	}

	portfolios, err := l.store.Load()
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "load portfolios")
	}
	p, ok := portfolios[userID]
	if !ok {
		return decimal.Decimal{}, &domain.InsufficientFundsError{
			Available: decimal.Zero,
			Required:  amount,
			Code:      cur.Code,
		}
	}

	wallet, ok := p.Wallet(cur.Code)
	if !ok {
		return decimal.Decimal{}, &domain.InsufficientFundsError{
			Available: decimal.Zero,
			Required:  amount,
			Code:      cur.Code,
		}
	}
	if wallet.Balance().LessThan(amount) {
		return decimal.Decimal{}, &domain.InsufficientFundsError{
			Available: wallet.Balance(),
			Required:  amount,
			Code:      cur.Code,
		}
	}

	// quote before mutating so a resolver failure leaves both wallets
	// untouched
	rate, err := l.resolver.GetRate(ctx, cur.Code, l.reference)
	if err != nil {
		return decimal.Decimal{}, err
	}
	revenue := amount.Mul(rate).Round(6)
	if revenue.IsZero() {
		return decimal.Decimal{}, errors.Errorf("amount too small: selling %s %s yields no %s at rate %s",
			amount.String(), cur.Code, l.reference, rate.String())
	}

	if err := wallet.Withdraw(amount); err != nil {
		return decimal.Decimal{}, err
	}
	if err := p.EnsureWallet(l.reference).Deposit(revenue); err != nil {
		return decimal.Decimal{}, err
	}

	if err := l.store.Save(portfolios); err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "persist portfolio after sell")
	}

	l.record(userID, actionSell, cur.Code, amount, rate)
	l.logger.Info("sell executed",
		zap.Int("user_id", userID),
		zap.String("currency", cur.Code),
		zap.String("amount", amount.String()),
		zap.String("rate", rate.String()),
		zap.String("revenue", revenue.String()))

	return revenue, nil
}

// TotalValue sums the portfolio's wallets converted into the base
// currency. Wallets whose rate cannot be resolved are skipped with a
// warning instead of failing the whole valuation.
func (l *Ledger) TotalValue(ctx context.Context, userID int, base string) (decimal.Decimal, error) {
	baseCur, err := domain.ResolveCurrency(base)
	if err != nil {
		return decimal.Decimal{}, err
	}

	p, err := l.Portfolio(userID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	total := decimal.Zero
	for _, w := range p.Wallets() {
		rate, err := l.resolver.GetRate(ctx, w.Code(), baseCur.Code)
		if err != nil {
			l.logger.Warn("skipping wallet in valuation, rate unresolved",
				zap.Int("user_id", userID), zap.String("currency", w.Code()), zap.Error(err))
			continue
		}
		total = total.Add(w.Balance().Mul(rate))
	}

	return total.Round(6), nil
}

// History returns the user's executed trades, oldest first.
func (l *Ledger) History(userID int) ([]trades.Record, error) {
	if l.journal == nil {
		return nil, nil
	}

	return l.journal.ForUser(userID)
}

func (l *Ledger) record(userID int, action, code string, amount, rate decimal.Decimal) {
	if l.journal == nil {
		return
	}

	rec := trades.Record{
		ID:         uuid.New().String(),
		UserID:     userID,
		Action:     action,
		Pair:       domain.PairKey{From: code, To: l.reference}.String(),
		Amount:     amount.String(),
		Rate:       rate.String(),
		ExecutedAt: time.Now().UTC(),
	}

	// the trade itself is already persisted; a journal failure is logged,
	// not surfaced
	if err := l.journal.Append(rec); err != nil {
		l.logger.Warn("failed to journal trade", zap.String("trade_id", rec.ID), zap.Error(err))
	}
}
