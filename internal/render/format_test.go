package render

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestFormatUSD(t *testing.T) {
	t.Run("nil is placeholder, never zero", func(t *testing.T) {
		if got := FormatUSD(nil); got != Placeholder {
			t.Errorf("FormatUSD(nil) = %q, want %q", got, Placeholder)
		}
	})

	t.Run("large values group with no decimals", func(t *testing.T) {
		if got := FormatUSD(dec("1234567")); got != "1,234,567" {
			t.Errorf("FormatUSD = %q, want 1,234,567", got)
		}
	})

	t.Run("mid range keeps up to four decimals", func(t *testing.T) {
		if got := FormatUSD(dec("12.34567")); got != "12.3456" {
			t.Errorf("FormatUSD = %q, want 12.3456", got)
		}
		if got := FormatUSD(dec("5")); got != "5" {
			t.Errorf("FormatUSD = %q, want 5", got)
		}
	})

	t.Run("sub-dollar keeps up to eight decimals", func(t *testing.T) {
		if got := FormatUSD(dec("0.000123456789")); got != "0.00012345" {
			t.Errorf("FormatUSD = %q, want 0.00012345", got)
		}
		if got := FormatUSD(dec("0.01")); got != "0.01" {
			t.Errorf("FormatUSD = %q, want 0.01", got)
		}
	})
}

func TestFormatTokenAmount(t *testing.T) {
	if got := FormatTokenAmount(decimal.RequireFromString("5")); got != "5.00" {
		t.Errorf("FormatTokenAmount = %q, want 5.00", got)
	}
	if got := FormatTokenAmount(decimal.RequireFromString("1234567.891")); got != "1,234,567.89" {
		t.Errorf("FormatTokenAmount = %q, want 1,234,567.89", got)
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(nil); got != Placeholder {
		t.Errorf("FormatCount(nil) = %q, want %q", got, Placeholder)
	}
	n := int64(12345)
	if got := FormatCount(&n); got != "12,345" {
		t.Errorf("FormatCount = %q, want 12,345", got)
	}
}

func TestShortAddr(t *testing.T) {
	t.Run("short identifiers pass through", func(t *testing.T) {
		for _, addr := range []string{"", "abc", "123456789012"} {
			if got := ShortAddr(addr); got != addr {
				t.Errorf("ShortAddr(%q) = %q, want identity", addr, got)
			}
		}
	})

	t.Run("long identifiers shorten to 11 chars", func(t *testing.T) {
		addr := "EQBx1234567890abcdefABCD"
		got := ShortAddr(addr)
		if len(got) != 11 {
			t.Errorf("ShortAddr length = %d, want 11 (%q)", len(got), got)
		}
		if !strings.HasPrefix(got, addr[:4]) || !strings.HasSuffix(got, addr[len(addr)-4:]) {
			t.Errorf("ShortAddr = %q, want %s...%s", got, addr[:4], addr[len(addr)-4:])
		}
		if !strings.Contains(got, "...") {
			t.Errorf("ShortAddr = %q, missing separator", got)
		}
	})
}
