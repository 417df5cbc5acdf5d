package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/domain"
)

// TonPriceClient fetches the network reference currency (TON) price in USD
// from the CoinGecko simple-price endpoint.
type TonPriceClient struct {
	apiURL     string
	httpClient *http.Client
}

// NewTonPriceClient creates a reference-price client. apiURL may be empty
// to use the CoinGecko default.
func NewTonPriceClient(apiURL string) *TonPriceClient {
	if apiURL == "" {
		apiURL = "https://api.coingecko.com/api/v3/simple/price?ids=the-open-network&vs_currencies=usd"
	}
	return &TonPriceClient{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TonUSD returns the current TON/USD price. The caller caches the result;
// a single failed call is reported as an error and nothing else.
func (c *TonPriceClient) TonUSD(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, domain.NewNetworkError("fetch ton price", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: %d", domain.ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}

	// {"the-open-network":{"usd":5.5}}
	var payload map[string]map[string]json.Number
	if err := json.Unmarshal(body, &payload); err != nil {
		return decimal.Zero, err
	}

	raw, ok := payload["the-open-network"]["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("ton price missing from response")
	}

	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed ton price %q: %w", raw.String(), err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive ton price %s", price)
	}
	return price, nil
}
