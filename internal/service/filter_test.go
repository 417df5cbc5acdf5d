package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/domain"
)

func TestPassesThreshold(t *testing.T) {
	amount := decimal.NewFromInt(5)

	t.Run("unset threshold always passes", func(t *testing.T) {
		dest := domain.Destination{MinBuy: nil}
		if !PassesThreshold(dest, amount) {
			t.Error("nil threshold should pass any amount")
		}
		if !PassesThreshold(dest, decimal.Zero) {
			t.Error("nil threshold should pass zero amount")
		}
	})

	t.Run("normalized sentinel passes", func(t *testing.T) {
		dest := domain.Destination{MinBuy: domain.ParseThreshold("none")}
		if !PassesThreshold(dest, decimal.NewFromFloat(0.001)) {
			t.Error("sentinel threshold should pass")
		}
	})

	t.Run("unparseable threshold passes", func(t *testing.T) {
		dest := domain.Destination{MinBuy: domain.ParseThreshold("lots")}
		if !PassesThreshold(dest, amount) {
			t.Error("unparseable threshold should pass")
		}
	})

	t.Run("set threshold is strict", func(t *testing.T) {
		ten := decimal.NewFromInt(10)
		dest := domain.Destination{MinBuy: &ten}

		if PassesThreshold(dest, decimal.NewFromInt(5)) {
			t.Error("5 should not pass threshold 10")
		}
		if PassesThreshold(dest, decimal.NewFromInt(10)) {
			t.Error("exact threshold should not pass (strict comparison)")
		}
		if !PassesThreshold(dest, decimal.NewFromInt(11)) {
			t.Error("11 should pass threshold 10")
		}
	})
}
