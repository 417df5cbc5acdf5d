package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/domain"
)

// GeckoTerminalClient fetches pool listings and recent trades from the
// GeckoTerminal public API. The watcher uses it as its trade feed.
type GeckoTerminalClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGeckoTerminalClient creates a client. baseURL may be empty to use the
// public endpoint.
func NewGeckoTerminalClient(baseURL string) *GeckoTerminalClient {
	if baseURL == "" {
		baseURL = "https://api.geckoterminal.com/api/v2"
	}
	return &GeckoTerminalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *GeckoTerminalClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError("fetch trade feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", domain.ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

type gtPoolsResponse struct {
	Data []struct {
		Attributes struct {
			Address      string `json:"address"`
			ReserveInUSD string `json:"reserve_in_usd"`
			Holders      any    `json:"holders"` // number or numeric string
		} `json:"attributes"`
		Relationships struct {
			Dex struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"dex"`
		} `json:"relationships"`
	} `json:"data"`
}

// TokenPools lists pools trading a token, richest first is not guaranteed;
// callers pick by reserve.
func (c *GeckoTerminalClient) TokenPools(ctx context.Context, network, tokenAddress string) ([]domain.Pool, error) {
	endpoint := fmt.Sprintf("%s/networks/%s/tokens/%s/pools?include=dex",
		c.baseURL, url.PathEscape(network), url.PathEscape(tokenAddress))

	var payload gtPoolsResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	pools := make([]domain.Pool, 0, len(payload.Data))
	for _, item := range payload.Data {
		reserve, err := decimal.NewFromString(item.Attributes.ReserveInUSD)
		if err != nil {
			reserve = decimal.Zero
		}
		pools = append(pools, domain.Pool{
			Address:    item.Attributes.Address,
			Dex:        item.Relationships.Dex.Data.ID,
			ReserveUSD: reserve,
			Holders:    parseHolders(item.Attributes.Holders),
		})
	}
	return pools, nil
}

// parseHolders tolerates both numeric and string holder counts.
func parseHolders(v any) *int64 {
	switch x := v.(type) {
	case float64:
		h := int64(x)
		return &h
	case string:
		if h, err := strconv.ParseInt(x, 10, 64); err == nil {
			return &h
		}
	}
	return nil
}

type gtTradesResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Kind          string `json:"kind"`
			TxHash        string `json:"tx_hash"`
			FromAddress   string `json:"tx_from_address"`
			ToTokenAmount string `json:"to_token_amount"`
			VolumeInUSD   string `json:"volume_in_usd"`
		} `json:"attributes"`
	} `json:"data"`
}

// Trades returns recent trades for a pool, newest first as the provider
// reports them.
func (c *GeckoTerminalClient) Trades(ctx context.Context, network, poolAddress string, limit int) ([]domain.Trade, error) {
	endpoint := fmt.Sprintf("%s/networks/%s/pools/%s/trades?limit=%s",
		c.baseURL, url.PathEscape(network), url.PathEscape(poolAddress), strconv.Itoa(limit))

	var payload gtTradesResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(payload.Data))
	for _, item := range payload.Data {
		attrs := item.Attributes
		amount, err := decimal.NewFromString(attrs.ToTokenAmount)
		if err != nil {
			continue // unusable without an amount
		}
		tr := domain.Trade{
			ID:          item.ID,
			Kind:        strings.ToLower(attrs.Kind),
			TxHash:      attrs.TxHash,
			Buyer:       attrs.FromAddress,
			TokenAmount: amount.Abs(),
		}
		if vol, err := decimal.NewFromString(attrs.VolumeInUSD); err == nil {
			tr.VolumeUSD = &vol
		}
		trades = append(trades, tr)
	}
	return trades, nil
}
