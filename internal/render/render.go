// Package render turns a buy event plus its priced snapshot into a
// displayable notification. Rendering is pure: no I/O, and every input,
// including fully absent snapshots, maps to a defined output.
package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/domain"
)

// LinkTemplates are printf templates for the link line. ExplorerTx takes
// the transaction id; GTToken and DexSToken take the token address.
// Trending is a fixed URL.
type LinkTemplates struct {
	ExplorerTx string
	GTToken    string
	DexSToken  string
	Trending   string
}

// Renderer formats buy notifications.
type Renderer struct {
	decimals int32
	dexNames map[string]string
	links    LinkTemplates
}

// NewRenderer creates a renderer. dexNames maps raw venue identifiers to
// display labels; unknown identifiers fall back to a generic "DEX".
func NewRenderer(decimals int32, dexNames map[string]string, links LinkTemplates) *Renderer {
	if dexNames == nil {
		dexNames = map[string]string{}
	}
	return &Renderer{decimals: decimals, dexNames: dexNames, links: links}
}

// DexDisplayName resolves a raw venue identifier to its display label.
func (r *Renderer) DexDisplayName(dex string) string {
	if name, ok := r.dexNames[dex]; ok {
		return name
	}
	return "DEX"
}

// Render builds the notification for one buy event. The priced facts come
// solely from the snapshot; per-destination variation is delivery
// mechanics, never content.
func (r *Renderer) Render(ev domain.BuyEvent, snap domain.PricedSnapshot) domain.RenderedNotification {
	amount := ev.DisplayAmount(r.decimals)

	var usdValue *decimal.Decimal
	if snap.PriceUSD != nil {
		v := amount.Mul(*snap.PriceUSD)
		usdValue = &v
	}

	var tonValue *decimal.Decimal
	if usdValue != nil && snap.TonUSD != nil && snap.TonUSD.IsPositive() {
		v := usdValue.Div(*snap.TonUSD)
		tonValue = &v
	}

	links := r.buildLinks(ev, snap)

	var lines []string
	lines = append(lines, fmt.Sprintf("%s Buy! — %s", ev.TokenSymbol, r.DexDisplayName(ev.Dex)))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("💎 %s TON ($%s)", FormatUSD(tonValue), FormatUSD(usdValue)))
	lines = append(lines, fmt.Sprintf("🪙 %s %s", FormatTokenAmount(amount), ev.TokenSymbol))
	lines = append(lines, fmt.Sprintf("👤 %s", ShortAddr(ev.BuyerAddress)))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Price: $%s", FormatUSD(snap.PriceUSD)))
	lines = append(lines, fmt.Sprintf("Liquidity: $%s", FormatUSD(snap.LiquidityUSD)))
	lines = append(lines, fmt.Sprintf("MCap: $%s", FormatUSD(snap.MarketCapUSD)))
	lines = append(lines, fmt.Sprintf("Holders: %s", FormatCount(ev.HoldersCount)))
	lines = append(lines, "")
	lines = append(lines, linksLine(links))

	return domain.RenderedNotification{
		Text:  strings.Join(lines, "\n"),
		Links: links,
	}
}

func (r *Renderer) buildLinks(ev domain.BuyEvent, snap domain.PricedSnapshot) []domain.Link {
	dexsURL := snap.DexURL
	if dexsURL == "" {
		dexsURL = fmt.Sprintf(r.links.DexSToken, ev.TokenAddress)
	}

	links := []domain.Link{
		{Label: "TX", URL: fmt.Sprintf(r.links.ExplorerTx, ev.TransactionID)},
		{Label: "GT", URL: fmt.Sprintf(r.links.GTToken, ev.TokenAddress)},
		{Label: "DexS", URL: dexsURL},
	}
	if snap.TelegramURL != "" {
		links = append(links, domain.Link{Label: "Telegram", URL: snap.TelegramURL})
	}
	links = append(links, domain.Link{Label: "Trending", URL: r.links.Trending})
	return links
}

func linksLine(links []domain.Link) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		parts = append(parts, fmt.Sprintf("[%s](%s)", l.Label, l.URL))
	}
	return strings.Join(parts, " | ")
}
