package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidCredentials is returned on login with a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// CurrencyNotFoundError indicates the currency code is not in the registry.
type CurrencyNotFoundError struct {
	Code string
}

func (e *CurrencyNotFoundError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

// RateUnavailableError indicates no direct, inverse or triangulated rate
// exists in the current snapshot for the requested pair.
type RateUnavailableError struct {
	From string
	To   string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("rate %s->%s is unavailable", e.From, e.To)
}

// InsufficientFundsError indicates a wallet cannot cover the requested amount.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
	Code      string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s %s, required %s %s",
		e.Available.StringFixed(6), e.Code, e.Required.StringFixed(6), e.Code)
}

// InvalidAmountError indicates an amount that is not a positive finite number.
type InvalidAmountError struct {
	Value decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: must be positive", e.Value.String())
}

// ProviderFetchError indicates a single rate provider failed to deliver rates.
type ProviderFetchError struct {
	Provider string
	Reason   string
}

func (e *ProviderFetchError) Error() string {
	return fmt.Sprintf("provider %s fetch failed: %s", e.Provider, e.Reason)
}

// SnapshotCorruptError indicates the persisted rate snapshot could not be decoded.
type SnapshotCorruptError struct {
	Reason string
}

func (e *SnapshotCorruptError) Error() string {
	return fmt.Sprintf("rate snapshot corrupt: %s", e.Reason)
}

// UserAlreadyExistsError indicates the username is already registered.
type UserAlreadyExistsError struct {
	Username string
}

func (e *UserAlreadyExistsError) Error() string {
	return fmt.Sprintf("user %q already exists", e.Username)
}
