package provider

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// BinanceProvider quotes crypto assets against USDT on Binance spot.
// USDT is treated at par with the USD reference (the registry aliases
// USDT to USD), so BTCUSDT is ingested as BTC_USD.
type BinanceProvider struct {
	client    *binance.Client
	assets    []string
	reference string
}

func NewBinanceProvider(client *binance.Client, assets []string, reference string) *BinanceProvider {
	return &BinanceProvider{client: client, assets: assets, reference: reference}
}

func (p *BinanceProvider) Name() string { return "binance" }

func (p *BinanceProvider) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("binance API returned empty price list")
	}

	want := make(map[string]string, len(p.assets))
	for _, asset := range p.assets {
		want[asset+"USDT"] = asset
	}

	out := make(map[string]decimal.Decimal, len(p.assets))
	for _, price := range prices {
		asset, ok := want[price.Symbol]
		if !ok {
			continue
		}

		rate, err := decimal.NewFromString(price.Price)
		if err != nil || !rate.IsPositive() {
			continue
		}
		out[asset+"_"+p.reference] = rate
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("binance API returned no prices for requested assets")
	}

	return out, nil
}
