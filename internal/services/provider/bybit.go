package provider

import (
	"context"
	"fmt"

	"github.com/hirokisan/bybit/v2"
	"github.com/shopspring/decimal"
)

// BybitProvider quotes crypto assets against USDT on Bybit spot, ingesting
// them in the canonical <ASSET>_<REFERENCE> direction.
type BybitProvider struct {
	client    *bybit.Client
	assets    []string
	reference string
}

func NewBybitProvider(client *bybit.Client, assets []string, reference string) *BybitProvider {
	return &BybitProvider{client: client, assets: assets, reference: reference}
}

func (p *BybitProvider) Name() string { return "bybit" }

func (p *BybitProvider) FetchRates(_ context.Context) (map[string]decimal.Decimal, error) {
	result, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
	})
	if err != nil {
		return nil, err
	}
	if len(result.Result.Spot.List) == 0 {
		return nil, fmt.Errorf("bybit API returned empty spot ticker list")
	}

	want := make(map[string]string, len(p.assets))
	for _, asset := range p.assets {
		want[asset+"USDT"] = asset
	}

	out := make(map[string]decimal.Decimal, len(p.assets))
	for _, ticker := range result.Result.Spot.List {
		asset, ok := want[string(ticker.Symbol)]
		if !ok {
			continue
		}

		rate, err := decimal.NewFromString(ticker.LastPrice)
		if err != nil || !rate.IsPositive() {
			continue
		}
		out[asset+"_"+p.reference] = rate
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("bybit API returned no prices for requested assets")
	}

	return out, nil
}
