package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Destination is one chat that receives buy alerts for a token.
// The dispatcher treats it as an immutable snapshot per cycle.
type Destination struct {
	ChatID       int64
	TokenAddress string
	TokenSymbol  string

	// MinBuy is the minimum buy size (token display units) for an alert.
	// nil means no filtering.
	MinBuy *decimal.Decimal

	// Optional media attachments. Either may be a Telegram file id, an
	// http(s) URL, or a local file path. When both are set the chat gets
	// both deliveries.
	PhotoRef     string
	AnimationRef string

	// Per-chat link overrides; empty falls back to the configured defaults.
	TrendingURL  string
	BookTrendURL string
	DtradeRef    string
}

// HasMedia reports whether any media attachment is configured.
func (d Destination) HasMedia() bool {
	return d.PhotoRef != "" || d.AnimationRef != ""
}

// thresholdSentinels are stored values that historically meant "no minimum".
var thresholdSentinels = map[string]bool{
	"":      true,
	"none":  true,
	"null":  true,
	"false": true,
	"off":   true,
}

// ParseThreshold normalizes a stored minimum-buy value to an optional
// decimal. Sentinels and unparseable strings mean unset (nil). This is the
// single place the legacy duck-typed representation is interpreted; filter
// logic only ever sees nil or a number.
func ParseThreshold(raw string) *decimal.Decimal {
	s := strings.TrimSpace(strings.ToLower(raw))
	if thresholdSentinels[s] {
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &v
}
