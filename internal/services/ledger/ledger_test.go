package ledger

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/internal/storage/trades"
)

type fakeResolver struct {
	rates map[string]decimal.Decimal
	errs  map[string]error
	calls int
}

func (f *fakeResolver) GetRate(_ context.Context, from, to string) (decimal.Decimal, error) {
	f.calls++
	key := from + "_" + to
	if err, ok := f.errs[key]; ok {
		return decimal.Decimal{}, err
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if r, ok := f.rates[key]; ok {
		return r, nil
	}
	return decimal.Decimal{}, &domain.RateUnavailableError{From: from, To: to}
}

type fakeStore struct {
	portfolios map[int]*domain.Portfolio
	saves      int
	saveErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{portfolios: make(map[int]*domain.Portfolio)}
}

func (f *fakeStore) Load() (map[int]*domain.Portfolio, error) {
	return f.portfolios, nil
}

func (f *fakeStore) Save(portfolios map[int]*domain.Portfolio) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.portfolios = portfolios
	f.saves++
	return nil
}

type fakeJournal struct {
	records []trades.Record
}

func (f *fakeJournal) Append(rec trades.Record) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeJournal) ForUser(userID int) ([]trades.Record, error) {
	var out []trades.Record
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestLedger(resolver *fakeResolver, store *fakeStore, journal *fakeJournal) *Ledger {
	// a plain forward of a nil *fakeJournal would produce a non-nil
	// interface holding a nil pointer
	var j tradeJournal
	if journal != nil {
		j = journal
	}
	return New(resolver, store, j, "USD", zap.NewNop())
}

func ethAt3000() *fakeResolver {
	return &fakeResolver{rates: map[string]decimal.Decimal{
		"ETH_USD": decimal.NewFromInt(3000),
	}}
}

func TestPortfolioCreatedWithStartingBalance(t *testing.T) {
	store := newFakeStore()
	l := newTestLedger(ethAt3000(), store, nil)

	p, err := l.Portfolio(7)
	require.NoError(t, err)

	usd, ok := p.Wallet("USD")
	require.True(t, ok)
	require.True(t, usd.Balance().Equal(decimal.NewFromInt(1000)))
	require.Equal(t, 1, store.saves)

	// second access returns the persisted portfolio without re-seeding
	again, err := l.Portfolio(7)
	require.NoError(t, err)
	require.Same(t, p, again)
	require.Equal(t, 1, store.saves)
}

func TestBuyInsufficientFunds(t *testing.T) {
	store := newFakeStore()
	journal := &fakeJournal{}
	l := newTestLedger(ethAt3000(), store, journal)

	err := l.Buy(context.Background(), 1, "ETH", decimal.RequireFromString("0.5"))

	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Available.Equal(decimal.NewFromInt(1000)))
	require.True(t, insufficient.Required.Equal(decimal.NewFromInt(1500)))
	require.Equal(t, "USD", insufficient.Code)

	// no partial application: the starting balance is intact and nothing
	// was journaled
	p, err := l.Portfolio(1)
	require.NoError(t, err)
	usd, _ := p.Wallet("USD")
	require.True(t, usd.Balance().Equal(decimal.NewFromInt(1000)))
	_, hasETH := p.Wallet("ETH")
	require.False(t, hasETH)
	require.Empty(t, journal.records)
}

func TestBuyDebitsReferenceAndCreditsAsset(t *testing.T) {
	store := newFakeStore()
	journal := &fakeJournal{}
	l := newTestLedger(ethAt3000(), store, journal)

	err := l.Buy(context.Background(), 1, "ETH", decimal.RequireFromString("0.1"))
	require.NoError(t, err)

	p, err := l.Portfolio(1)
	require.NoError(t, err)
	usd, _ := p.Wallet("USD")
	eth, _ := p.Wallet("ETH")
	require.True(t, usd.Balance().Equal(decimal.NewFromInt(700)), "got %s", usd.Balance())
	require.True(t, eth.Balance().Equal(decimal.RequireFromString("0.1")), "got %s", eth.Balance())

	require.Len(t, journal.records, 1)
	require.Equal(t, "BUY", journal.records[0].Action)
	require.Equal(t, "ETH_USD", journal.records[0].Pair)
	require.Equal(t, "0.1", journal.records[0].Amount)
	require.Equal(t, "3000", journal.records[0].Rate)
}

func TestBuyRejectsInvalidAmount(t *testing.T) {
	l := newTestLedger(ethAt3000(), newFakeStore(), nil)

	var invalid *domain.InvalidAmountError
	err := l.Buy(context.Background(), 1, "ETH", decimal.Zero)
	require.ErrorAs(t, err, &invalid)

	err = l.Buy(context.Background(), 1, "ETH", decimal.NewFromInt(-1))
	require.ErrorAs(t, err, &invalid)
}

func TestBuyUnknownCurrency(t *testing.T) {
	l := newTestLedger(ethAt3000(), newFakeStore(), nil)

	err := l.Buy(context.Background(), 1, "XYZ", decimal.NewFromInt(1))

	var notFound *domain.CurrencyNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "XYZ", notFound.Code)
}

func TestSellWithoutWallet(t *testing.T) {
	store := newFakeStore()
	l := newTestLedger(ethAt3000(), store, nil)

	_, err := l.Portfolio(1)
	require.NoError(t, err)

	_, err = l.Sell(context.Background(), 1, "ETH", decimal.RequireFromString("0.1"))

	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Available.IsZero())
	require.Equal(t, "ETH", insufficient.Code)
}

func TestSellMoreThanHeld(t *testing.T) {
	store := newFakeStore()
	l := newTestLedger(ethAt3000(), store, nil)

	require.NoError(t, l.Buy(context.Background(), 1, "ETH", decimal.RequireFromString("0.1")))

	_, err := l.Sell(context.Background(), 1, "ETH", decimal.RequireFromString("0.2"))

	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Available.Equal(decimal.RequireFromString("0.1")))
	require.True(t, insufficient.Required.Equal(decimal.RequireFromString("0.2")))
	require.Equal(t, "ETH", insufficient.Code)
}

func TestSellCreditsReference(t *testing.T) {
	store := newFakeStore()
	journal := &fakeJournal{}
	l := newTestLedger(ethAt3000(), store, journal)

	require.NoError(t, l.Buy(context.Background(), 1, "ETH", decimal.RequireFromString("0.1")))

	revenue, err := l.Sell(context.Background(), 1, "ETH", decimal.RequireFromString("0.1"))
	require.NoError(t, err)
	require.True(t, revenue.Equal(decimal.NewFromInt(300)), "got %s", revenue)

	// round trip at a constant rate restores the starting balance
	p, err := l.Portfolio(1)
	require.NoError(t, err)
	usd, _ := p.Wallet("USD")
	eth, _ := p.Wallet("ETH")
	require.True(t, usd.Balance().Equal(decimal.NewFromInt(1000)), "got %s", usd.Balance())
	require.True(t, eth.Balance().IsZero())

	require.Len(t, journal.records, 2)
	require.Equal(t, "SELL", journal.records[1].Action)
}

func TestSellResolverFailureLeavesWalletsUntouched(t *testing.T) {
	resolver := ethAt3000()
	store := newFakeStore()
	l := newTestLedger(resolver, store, nil)

	require.NoError(t, l.Buy(context.Background(), 1, "ETH", decimal.RequireFromString("0.1")))
	savesBefore := store.saves

	resolver.errs = map[string]error{"ETH_USD": errors.New("provider down")}

	_, err := l.Sell(context.Background(), 1, "ETH", decimal.RequireFromString("0.1"))
	require.Error(t, err)

	p, pErr := l.Portfolio(1)
	require.NoError(t, pErr)
	eth, _ := p.Wallet("ETH")
	require.True(t, eth.Balance().Equal(decimal.RequireFromString("0.1")))
	require.Equal(t, savesBefore, store.saves)
}

func TestTotalValueSkipsUnresolvableWallets(t *testing.T) {
	resolver := &fakeResolver{rates: map[string]decimal.Decimal{
		"ETH_USD": decimal.NewFromInt(3000),
		"BTC_USD": decimal.NewFromInt(60000),
	}}
	store := newFakeStore()
	l := newTestLedger(resolver, store, nil)

	require.NoError(t, l.Buy(context.Background(), 1, "ETH", decimal.RequireFromString("0.1")))

	// a holding with no quote must not sink the whole valuation
	p, err := l.Portfolio(1)
	require.NoError(t, err)
	require.NoError(t, p.EnsureWallet("ADA").Deposit(decimal.NewFromInt(500)))

	total, err := l.TotalValue(context.Background(), 1, "USD")
	require.NoError(t, err)

	// 700 USD + 0.1 ETH * 3000
	require.True(t, total.Equal(decimal.NewFromInt(1000)), "got %s", total)
}

func TestDustTradesRejectedBeforeMutation(t *testing.T) {
	resolver := &fakeResolver{rates: map[string]decimal.Decimal{
		"JPY_USD": decimal.RequireFromString("0.0067"),
	}}
	store := newFakeStore()
	l := newTestLedger(resolver, store, nil)

	p := domain.NewPortfolio(1)
	require.NoError(t, p.EnsureWallet("USD").Deposit(decimal.NewFromInt(1000)))
	require.NoError(t, p.EnsureWallet("JPY").Deposit(decimal.NewFromInt(10)))
	store.portfolios[1] = p

	// 0.00001 JPY rounds to zero USD at 6 decimal places
	dust := decimal.RequireFromString("0.00001")

	err := l.Buy(context.Background(), 1, "JPY", dust)
	require.Error(t, err)
	require.Contains(t, err.Error(), "amount too small")

	_, err = l.Sell(context.Background(), 1, "JPY", dust)
	require.Error(t, err)
	require.Contains(t, err.Error(), "amount too small")

	usd, _ := p.Wallet("USD")
	jpy, _ := p.Wallet("JPY")
	require.True(t, usd.Balance().Equal(decimal.NewFromInt(1000)))
	require.True(t, jpy.Balance().Equal(decimal.NewFromInt(10)))
	require.Zero(t, store.saves)
}

func TestTradesExecuteWithoutJournal(t *testing.T) {
	store := newFakeStore()
	l := newTestLedger(ethAt3000(), store, nil)

	require.NoError(t, l.Buy(context.Background(), 1, "ETH", decimal.RequireFromString("0.1")))

	revenue, err := l.Sell(context.Background(), 1, "ETH", decimal.RequireFromString("0.1"))
	require.NoError(t, err)
	require.True(t, revenue.Equal(decimal.NewFromInt(300)))

	recs, err := l.History(1)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestHistoryReturnsUserTrades(t *testing.T) {
	journal := &fakeJournal{}
	l := newTestLedger(ethAt3000(), newFakeStore(), journal)

	require.NoError(t, l.Buy(context.Background(), 1, "ETH", decimal.RequireFromString("0.1")))
	require.NoError(t, l.Buy(context.Background(), 2, "ETH", decimal.RequireFromString("0.2")))

	recs, err := l.History(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 1, recs[0].UserID)
	require.Equal(t, "BUY", recs[0].Action)
}
