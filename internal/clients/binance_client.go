package clients

import (
	"github.com/adshao/go-binance/v2"
)

// NewBinanceClient builds a Binance REST client. Public market data needs
// no credentials, so empty keys are fine.
func NewBinanceClient(apiKey, apiSecret string) *binance.Client {
	return binance.NewClient(apiKey, apiSecret)
}
