package domain

import "github.com/shopspring/decimal"

// PricedSnapshot is the merged market-data view for one token at one moment.
// Every field is optional: a nil pointer (or empty string) means the source
// could not provide the value. Absence is a normal state, never an error,
// and must not be collapsed to zero.
type PricedSnapshot struct {
	PriceUSD     *decimal.Decimal `json:"price_usd,omitempty"`
	LiquidityUSD *decimal.Decimal `json:"liquidity_usd,omitempty"`
	MarketCapUSD *decimal.Decimal `json:"market_cap_usd,omitempty"`
	TonUSD       *decimal.Decimal `json:"ton_usd,omitempty"`
	TelegramURL  string           `json:"telegram_url,omitempty"`
	DexURL       string           `json:"dex_url,omitempty"`
}

// TradingPair is one trading-pair record returned by the per-token
// market-data provider. Numeric fields are nil when the provider omitted
// them or sent something unparseable.
type TradingPair struct {
	ChainID      string
	PriceUSD     *decimal.Decimal
	LiquidityUSD *decimal.Decimal
	FDVUSD       *decimal.Decimal
	URL          string
	TelegramURL  string
	ImageURL     string
}

// Pool is a liquidity pool summary from the trade-feed provider.
type Pool struct {
	Address    string
	Dex        string
	ReserveUSD decimal.Decimal
	Holders    *int64 // token holder count, when the feed reports it
}

// Trade is a single swap reported by the trade-feed provider.
// TokenAmount is in whole-token units as reported by the feed.
type Trade struct {
	ID          string
	Kind        string // "buy" or "sell"
	TxHash      string
	Buyer       string
	TokenAmount decimal.Decimal
	VolumeUSD   *decimal.Decimal
}

// IsBuy reports whether the trade is a purchase. Feeds that omit the kind
// are treated as buys so a sparse feed does not silently drop alerts.
func (t Trade) IsBuy() bool {
	return t.Kind == "" || t.Kind == "buy"
}
