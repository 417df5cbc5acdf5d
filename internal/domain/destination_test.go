package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseThreshold(t *testing.T) {
	t.Run("empty means unset", func(t *testing.T) {
		if got := ParseThreshold(""); got != nil {
			t.Errorf("ParseThreshold(\"\") = %v, want nil", got)
		}
	})

	t.Run("sentinels mean unset", func(t *testing.T) {
		for _, raw := range []string{"none", "None", "NULL", "false", "off", "  none  "} {
			if got := ParseThreshold(raw); got != nil {
				t.Errorf("ParseThreshold(%q) = %v, want nil", raw, got)
			}
		}
	})

	t.Run("unparseable means unset", func(t *testing.T) {
		for _, raw := range []string{"abc", "10 TON", "1.2.3"} {
			if got := ParseThreshold(raw); got != nil {
				t.Errorf("ParseThreshold(%q) = %v, want nil", raw, got)
			}
		}
	})

	t.Run("numeric string parses", func(t *testing.T) {
		got := ParseThreshold("10.5")
		if got == nil {
			t.Fatal("ParseThreshold(\"10.5\") = nil, want value")
		}
		if !got.Equal(decimal.RequireFromString("10.5")) {
			t.Errorf("ParseThreshold(\"10.5\") = %s", got)
		}
	})
}

func TestBuyEventDisplayAmount(t *testing.T) {
	ev := BuyEvent{RawAmount: decimal.RequireFromString("5000000000")}

	display := ev.DisplayAmount(9)
	if !display.Equal(decimal.RequireFromString("5")) {
		t.Errorf("DisplayAmount = %s, want 5", display)
	}

	t.Run("conversion is exact round-trip", func(t *testing.T) {
		raw := decimal.RequireFromString("123456789123456789")
		ev := BuyEvent{RawAmount: raw}
		back := ev.DisplayAmount(9).Shift(9)
		if !back.Equal(raw) {
			t.Errorf("round-trip lost precision: %s != %s", back, raw)
		}
	})
}
