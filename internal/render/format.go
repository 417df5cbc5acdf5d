package render

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Placeholder marks a value no source could provide. Formatting never
// substitutes zero for missing data.
const Placeholder = "—"

// FormatUSD formats a USD figure by magnitude: values of 1000 and above get
// grouped whole numbers, values in [1,1000) keep up to 4 decimals, values
// below 1 keep up to 8 decimals so sub-cent token prices stay visible.
func FormatUSD(v *decimal.Decimal) string {
	if v == nil {
		return Placeholder
	}
	f, _ := v.Float64()
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return Placeholder
	case f >= 1000:
		return humanize.CommafWithDigits(f, 0)
	case f >= 1:
		return humanize.CommafWithDigits(f, 4)
	default:
		return humanize.CommafWithDigits(f, 8)
	}
}

// FormatTokenAmount formats a token display amount with grouping and a
// fixed two decimal places.
func FormatTokenAmount(v decimal.Decimal) string {
	f, _ := v.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Placeholder
	}
	return humanize.FormatFloat("#,###.##", f)
}

// FormatCount formats an integer count with grouping.
func FormatCount(v *int64) string {
	if v == nil {
		return Placeholder
	}
	return humanize.Comma(*v)
}

// ShortAddr shortens long chain identifiers to a first4...last4 form.
// Identifiers of 12 characters or fewer pass through unchanged.
func ShortAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
