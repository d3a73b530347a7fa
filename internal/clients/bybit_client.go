package clients

import (
	"net/http"
	"time"

	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient builds a Bybit REST client. The SDK's request methods
// take no context, so the HTTP client timeout is the only bound on a
// stalled response.
func NewBybitClient(apiKey, apiSecret string, timeout time.Duration) *bybit.Client {
	client := bybit.NewClient().WithHTTPClient(&http.Client{Timeout: timeout})
	if apiKey != "" {
		client = client.WithAuth(apiKey, apiSecret)
	}

	return client
}
