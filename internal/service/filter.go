package service

import (
	"github.com/shopspring/decimal"

	"tonbuybot/internal/domain"
)

// PassesThreshold reports whether a buy of the given size clears the
// destination's minimum. A nil threshold means the chat wants every buy.
// The comparison is strict: a buy exactly at the threshold is filtered.
// Thresholds are evaluated independently per destination.
func PassesThreshold(dest domain.Destination, amount decimal.Decimal) bool {
	if dest.MinBuy == nil {
		return true
	}
	return amount.GreaterThan(*dest.MinBuy)
}
