package domain

import (
	"fmt"
	"sort"
	"strings"
)

// CurrencyKind distinguishes fiat and crypto currencies.
type CurrencyKind string

const (
	KindFiat   CurrencyKind = "fiat"
	KindCrypto CurrencyKind = "crypto"
)

// Currency is an immutable registry entry. The kind-specific fields are
// display metadata only and never consulted by the ledger.
type Currency struct {
	Code string
	Name string
	Kind CurrencyKind

	// IssuingCountry is set for fiat currencies.
	IssuingCountry string
	// Algorithm and MarketCap are set for crypto currencies.
	Algorithm string
	MarketCap float64
}

// DisplayInfo returns a human-readable one-liner for UI and logs.
func (c Currency) DisplayInfo() string {
	if c.Kind == KindCrypto {
		return fmt.Sprintf("[CRYPTO] %s — %s (Algo: %s, MCAP: %.2e)", c.Code, c.Name, c.Algorithm, c.MarketCap)
	}

	return fmt.Sprintf("[FIAT] %s — %s (Issuing: %s)", c.Code, c.Name, c.IssuingCountry)
}

// currencyAliases maps commonly used synonyms onto registry codes.
var currencyAliases = map[string]string{
	"RUR":  "RUB",
	"USDT": "USD",
	"EURO": "EUR",
}

var currencyRegistry = buildRegistry(
	fiat("US Dollar", "USD", "United States"),
	fiat("Euro", "EUR", "Eurozone"),
	fiat("British Pound", "GBP", "United Kingdom"),
	fiat("Japanese Yen", "JPY", "Japan"),
	fiat("Russian Ruble", "RUB", "Russia"),
	fiat("Canadian Dollar", "CAD", "Canada"),
	fiat("Swiss Franc", "CHF", "Switzerland"),
	fiat("Chinese Yuan", "CNY", "China"),

	crypto("Bitcoin", "BTC", "SHA-256", 1.12e12),
	crypto("Ethereum", "ETH", "Ethash", 4.35e11),
	crypto("BitShares", "BTS", "DPoS", 1.5e8),
	crypto("Solana", "SOL", "PoH", 8.9e10),
	crypto("Cardano", "ADA", "Ouroboros", 2.4e10),
	crypto("Polkadot", "DOT", "NPoS", 1.1e10),
)

func fiat(name, code, country string) Currency {
	if country == "" {
		panic(fmt.Sprintf("currency %s: issuing country is required", code))
	}

	return mustCurrency(Currency{Code: code, Name: name, Kind: KindFiat, IssuingCountry: country})
}

func crypto(name, code, algorithm string, marketCap float64) Currency {
	if algorithm == "" {
		panic(fmt.Sprintf("currency %s: algorithm is required", code))
	}
	if marketCap < 0 {
		panic(fmt.Sprintf("currency %s: market cap cannot be negative", code))
	}

	return mustCurrency(Currency{Code: code, Name: name, Kind: KindCrypto, Algorithm: algorithm, MarketCap: marketCap})
}

// mustCurrency enforces the registration-time invariants: code is 2-5
// uppercase letters without whitespace, name is non-empty. Lookups do not
// re-validate.
func mustCurrency(c Currency) Currency {
	if c.Name == "" {
		panic(fmt.Sprintf("currency %s: display name is required", c.Code))
	}
	if len(c.Code) < 2 || len(c.Code) > 5 {
		panic(fmt.Sprintf("currency code %q: must be 2-5 characters", c.Code))
	}
	for _, r := range c.Code {
		if r < 'A' || r > 'Z' {
			panic(fmt.Sprintf("currency code %q: must be uppercase letters only", c.Code))
		}
	}

	return c
}

func buildRegistry(currencies ...Currency) map[string]Currency {
	registry := make(map[string]Currency, len(currencies))
	for _, c := range currencies {
		registry[c.Code] = c
	}

	return registry
}

// ResolveCurrency uppercases and trims the code, applies the alias table and
// looks the currency up in the static registry. Pure, no I/O.
func ResolveCurrency(code string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := currencyAliases[normalized]; ok {
		normalized = canonical
	}

	c, ok := currencyRegistry[normalized]
	if !ok {
		return Currency{}, &CurrencyNotFoundError{Code: code}
	}

	return c, nil
}

// Currencies returns all registered currencies sorted by code.
func Currencies() []Currency {
	out := make([]Currency, 0, len(currencyRegistry))
	for _, c := range currencyRegistry {
		out = append(out, c)
	}
	sortCurrencies(out)

	return out
}

// CryptoCodes returns the codes of registered crypto currencies, sorted.
func CryptoCodes() []string {
	return codesOfKind(KindCrypto)
}

// FiatCodes returns the codes of registered fiat currencies, sorted.
func FiatCodes() []string {
	return codesOfKind(KindFiat)
}

func codesOfKind(kind CurrencyKind) []string {
	var codes []string
	for _, c := range Currencies() {
		if c.Kind == kind {
			codes = append(codes, c.Code)
		}
	}

	return codes
}

func sortCurrencies(cs []Currency) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Code < cs[j].Code })
}
