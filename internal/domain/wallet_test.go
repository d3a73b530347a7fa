package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestWalletDepositAccumulates(t *testing.T) {
	w := NewWallet("usd")
	require.Equal(t, "USD", w.Code())

	require.NoError(t, w.Deposit(decimal.NewFromFloat(300.0)))
	require.NoError(t, w.Deposit(decimal.NewFromFloat(0.0000004)))

	// rounded to six decimal places after each mutation
	require.True(t, w.Balance().Equal(decimal.NewFromFloat(300.0)), "got %s", w.Balance())
}

func TestWalletDepositRejectsNonPositive(t *testing.T) {
	w := NewWallet("BTC")

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		err := w.Deposit(amount)
		var invalid *InvalidAmountError
		require.True(t, errors.As(err, &invalid))
		require.True(t, w.Balance().IsZero())
	}
}

func TestWalletWithdrawInsufficientLeavesBalanceUnchanged(t *testing.T) {
	w := NewWallet("USD")
	require.NoError(t, w.Deposit(decimal.NewFromInt(1000)))

	err := w.Withdraw(decimal.NewFromInt(1500))

	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	require.True(t, insufficient.Available.Equal(decimal.NewFromInt(1000)))
	require.True(t, insufficient.Required.Equal(decimal.NewFromInt(1500)))
	require.Equal(t, "USD", insufficient.Code)
	require.True(t, w.Balance().Equal(decimal.NewFromInt(1000)))
}

func TestWalletWithdrawExactBalance(t *testing.T) {
	w := NewWallet("ETH")
	require.NoError(t, w.Deposit(decimal.NewFromFloat(0.5)))
	require.NoError(t, w.Withdraw(decimal.NewFromFloat(0.5)))
	require.True(t, w.Balance().IsZero())
}

func TestRestoreWalletRejectsNegativeBalance(t *testing.T) {
	_, err := RestoreWallet("USD", decimal.NewFromInt(-1))
	require.Error(t, err)
}
