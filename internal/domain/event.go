package domain

import "github.com/shopspring/decimal"

// BuyEvent is a single detected token purchase on a DEX.
// Produced by the watcher; read-only everywhere downstream.
type BuyEvent struct {
	TokenSymbol   string          `json:"token_symbol"`
	TokenAddress  string          `json:"token_address"`
	Dex           string          `json:"dex"` // raw venue identifier, e.g. "stonfi_router"
	TransactionID string          `json:"transaction_id"`
	BuyerAddress  string          `json:"buyer_address"`
	RawAmount     decimal.Decimal `json:"raw_amount"` // smallest-unit (nano) integer amount
	HoldersCount  *int64          `json:"holders_count,omitempty"`
}

// DisplayAmount converts the raw smallest-unit amount to whole-token units.
// The conversion is exact; rounding is left to the renderer.
func (e BuyEvent) DisplayAmount(decimals int32) decimal.Decimal {
	return e.RawAmount.Shift(-decimals)
}
