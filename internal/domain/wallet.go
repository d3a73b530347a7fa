package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// balancePrecision bounds floating drift: balances are rounded to six
// decimal places after every mutation.
const balancePrecision = 6

// Wallet holds a single-currency balance. The balance is never negative
// between calls; all mutations go through Deposit and Withdraw.
type Wallet struct {
	code    string
	balance decimal.Decimal
}

// NewWallet creates an empty wallet for the given currency code.
func NewWallet(code string) *Wallet {
	return &Wallet{code: strings.ToUpper(strings.TrimSpace(code)), balance: decimal.Zero}
}

// RestoreWallet rebuilds a wallet from persisted state.
func RestoreWallet(code string, balance decimal.Decimal) (*Wallet, error) {
	if balance.IsNegative() {
		return nil, fmt.Errorf("wallet %s: persisted balance %s is negative", code, balance.String())
	}

	return &Wallet{code: strings.ToUpper(strings.TrimSpace(code)), balance: balance.Round(balancePrecision)}, nil
}

// Code returns the wallet's currency code.
func (w *Wallet) Code() string {
	return w.code
}

// Balance returns the current balance.
func (w *Wallet) Balance() decimal.Decimal {
	return w.balance
}

// Deposit adds a positive amount to the balance.
func (w *Wallet) Deposit(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	w.balance = w.balance.Add(amount).Round(balancePrecision)

	return nil
}

// Withdraw removes a positive amount from the balance. The check and the
// mutation happen synchronously, so a negative balance is never observable.
func (w *Wallet) Withdraw(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if amount.GreaterThan(w.balance) {
		return &InsufficientFundsError{Available: w.balance, Required: amount, Code: w.code}
	}

	w.balance = w.balance.Sub(amount).Round(balancePrecision)

	return nil
}

// ValidateAmount rejects amounts that are not strictly positive.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &InvalidAmountError{Value: amount}
	}

	return nil
}
