package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestExchangeRateProviderInvertsToCanonicalDirection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/key123/latest/USD", r.URL.Path)
		w.Write([]byte(`{"result":"success","conversion_rates":{"EUR":0.9345794392523364,"GBP":0.8,"USD":1.0,"RUB":0}}`))
	}))
	defer srv.Close()

	p := NewExchangeRateProvider(srv.Client(), "key123", []string{"EUR", "GBP", "RUB", "USD"}, "USD")
	p.baseURL = srv.URL

	rates, err := p.FetchRates(context.Background())
	require.NoError(t, err)

	// USD->EUR of 0.9345... inverts to EUR_USD of ~1.07
	eur, ok := rates["EUR_USD"]
	require.True(t, ok)
	require.True(t, eur.Sub(decimal.NewFromFloat(1.07)).Abs().LessThan(decimal.NewFromFloat(1e-9)), "got %s", eur)

	gbp, ok := rates["GBP_USD"]
	require.True(t, ok)
	require.True(t, gbp.Equal(decimal.NewFromFloat(1.25)))

	_, ok = rates["USD_USD"]
	require.False(t, ok, "reference currency skipped")
	_, ok = rates["RUB_USD"]
	require.False(t, ok, "non-positive upstream rate skipped")
}

func TestExchangeRateProviderQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewExchangeRateProvider(srv.Client(), "key123", []string{"EUR"}, "USD")
	p.baseURL = srv.URL

	_, err := p.FetchRates(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "quota")
}

func TestExchangeRateProviderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"error","error-type":"invalid-key"}`))
	}))
	defer srv.Close()

	p := NewExchangeRateProvider(srv.Client(), "bad", []string{"EUR"}, "USD")
	p.baseURL = srv.URL

	_, err := p.FetchRates(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid-key")
}
