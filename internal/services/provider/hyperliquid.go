package provider

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
)

// HyperliquidProvider reads mid prices from the Hyperliquid public Info
// API. Mids are keyed by base coin and quoted in USD(C), which matches the
// canonical <ASSET>_<REFERENCE> direction directly.
type HyperliquidProvider struct {
	info      *hyperliquid.Info
	assets    []string
	reference string
}

func NewHyperliquidProvider(info *hyperliquid.Info, assets []string, reference string) *HyperliquidProvider {
	return &HyperliquidProvider{info: info, assets: assets, reference: reference}
}

func (p *HyperliquidProvider) Name() string { return "hyperliquid" }

func (p *HyperliquidProvider) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	if p.info == nil {
		return nil, fmt.Errorf("hyperliquid info client is nil")
	}

	mids, err := p.info.AllMids(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(p.assets))
	for _, asset := range p.assets {
		mid, ok := mids[asset]
		if !ok || mid == "" {
			continue
		}

		rate, err := decimal.NewFromString(mid)
		if err != nil || !rate.IsPositive() {
			continue
		}
		out[asset+"_"+p.reference] = rate
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("hyperliquid API returned no mids for requested assets")
	}

	return out, nil
}
