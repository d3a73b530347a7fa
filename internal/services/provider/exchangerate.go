package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const exchangeRateAPIBaseURL = "https://v6.exchangerate-api.com/v6"

// ExchangeRateProvider fetches fiat rates from ExchangeRate-API. The
// upstream responds with USD->XXX conversion rates; they are inverted at
// ingestion into the canonical XXX_USD direction.
type ExchangeRateProvider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	fiats      []string
	reference  string
}

func NewExchangeRateProvider(httpClient *http.Client, apiKey string, fiats []string, reference string) *ExchangeRateProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &ExchangeRateProvider{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    exchangeRateAPIBaseURL,
		fiats:      fiats,
		reference:  reference,
	}
}

func (p *ExchangeRateProvider) Name() string { return "exchangerate-api" }

type exchangeRateResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (p *ExchangeRateProvider) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/latest/%s", p.baseURL, p.apiKey, p.reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build exchangerate-api request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request exchangerate-api")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("exchangerate-api request quota exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchangerate-api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read exchangerate-api response")
	}

	var parsed exchangeRateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode exchangerate-api response")
	}
	if parsed.Result != "success" {
		return nil, fmt.Errorf("exchangerate-api error: %s", parsed.ErrorType)
	}

	out := make(map[string]decimal.Decimal, len(p.fiats))
	for _, code := range p.fiats {
		if code == p.reference {
			continue
		}

		usdToFiat, ok := parsed.ConversionRates[code]
		if !ok || usdToFiat <= 0 {
			continue
		}

		// response is 1 USD = usdToFiat XXX; canonical XXX_USD is the inverse
		rate := decimal.NewFromInt(1).Div(decimal.NewFromFloat(usdToFiat))
		out[code+"_"+p.reference] = rate
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("exchangerate-api returned no usable fiat rates")
	}

	return out, nil
}
