package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/domain"
)

// DexScreenerClient fetches per-token trading-pair data from the
// DexScreener public API.
type DexScreenerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDexScreenerClient creates a client. baseURL may be empty to use the
// public endpoint.
func NewDexScreenerClient(baseURL string) *DexScreenerClient {
	if baseURL == "" {
		baseURL = "https://api.dexscreener.com"
	}
	return &DexScreenerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type dsPairsResponse struct {
	Pairs []dsPair `json:"pairs"`
}

type dsPair struct {
	ChainID   string `json:"chainId"`
	PriceUSD  string `json:"priceUsd"`
	URL       string `json:"url"`
	Liquidity struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	FDV  *float64 `json:"fdv"`
	Info struct {
		ImageURL string `json:"imageUrl"`
		Socials  []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}

// TokenPairs returns every trading pair DexScreener knows for a token, in
// provider order. Unparseable numeric fields come back nil, not zero.
func (c *DexScreenerClient) TokenPairs(ctx context.Context, tokenAddress string) ([]domain.TradingPair, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, url.PathEscape(tokenAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError("fetch token pairs", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", domain.ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload dsPairsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Pairs) == 0 {
		return nil, domain.ErrNoTradingPairs
	}

	pairs := make([]domain.TradingPair, 0, len(payload.Pairs))
	for _, p := range payload.Pairs {
		pairs = append(pairs, toTradingPair(p))
	}
	return pairs, nil
}

func toTradingPair(p dsPair) domain.TradingPair {
	pair := domain.TradingPair{
		ChainID:  strings.ToLower(p.ChainID),
		URL:      p.URL,
		ImageURL: p.Info.ImageURL,
	}

	if price, err := decimal.NewFromString(p.PriceUSD); err == nil {
		pair.PriceUSD = &price
	}
	if p.Liquidity.USD != nil {
		liq := decimal.NewFromFloat(*p.Liquidity.USD)
		pair.LiquidityUSD = &liq
	}
	if p.FDV != nil {
		fdv := decimal.NewFromFloat(*p.FDV)
		pair.FDVUSD = &fdv
	}

	for _, s := range p.Info.Socials {
		if strings.EqualFold(s.Type, "telegram") {
			pair.TelegramURL = s.URL
			break
		}
	}
	return pair
}
