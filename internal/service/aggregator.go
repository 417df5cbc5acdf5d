package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/cache"
	"tonbuybot/internal/domain"
	"tonbuybot/internal/infra"
)

// tonPriceKey is the single cache key for the network reference price.
const tonPriceKey = "ton-usd"

// TonPriceSource provides the network reference currency price in USD.
type TonPriceSource interface {
	TonUSD(ctx context.Context) (decimal.Decimal, error)
}

// PairsSource provides per-token trading-pair market data.
type PairsSource interface {
	TokenPairs(ctx context.Context, tokenAddress string) ([]domain.TradingPair, error)
}

// Aggregator merges the reference-price and per-token market-data sources
// into one PricedSnapshot, caching each source with its own TTL. All
// fetches are best-effort: a provider failure degrades the affected fields
// to absent, never the whole resolution.
type Aggregator struct {
	tonSource    TonPriceSource
	pairsSource  PairsSource
	tonCache     *cache.Cache[decimal.Decimal]
	pairsCache   *cache.Cache[[]domain.TradingPair]
	chainID      string
	fetchTimeout time.Duration
}

// NewAggregator wires the aggregator to its sources and caches. The caches
// are constructed once at startup and shared across concurrent cycles.
func NewAggregator(
	tonSource TonPriceSource,
	pairsSource PairsSource,
	tonCache *cache.Cache[decimal.Decimal],
	pairsCache *cache.Cache[[]domain.TradingPair],
	chainID string,
	fetchTimeout time.Duration,
) *Aggregator {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Aggregator{
		tonSource:    tonSource,
		pairsSource:  pairsSource,
		tonCache:     tonCache,
		pairsCache:   pairsCache,
		chainID:      chainID,
		fetchTimeout: fetchTimeout,
	}
}

// Resolve builds the priced snapshot for a token. fallbackPriceUSD is the
// caller's last-known price, substituted only when the market-data source
// has no usable price and the fallback is a positive finite number.
// Resolve never fails: the worst case is an all-absent snapshot.
func (a *Aggregator) Resolve(ctx context.Context, tokenAddress string, fallbackPriceUSD *decimal.Decimal) domain.PricedSnapshot {
	var (
		wg     sync.WaitGroup
		tonUSD *decimal.Decimal
		pairs  []domain.TradingPair
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		tonUSD = a.resolveTonUSD(ctx)
	}()
	go func() {
		defer wg.Done()
		pairs = a.resolvePairs(ctx, tokenAddress)
	}()
	wg.Wait()

	snap := domain.PricedSnapshot{TonUSD: tonUSD}

	if pair, ok := selectPair(pairs, a.chainID); ok {
		snap.PriceUSD = pair.PriceUSD
		snap.LiquidityUSD = pair.LiquidityUSD
		snap.MarketCapUSD = pair.FDVUSD // fully-diluted valuation stands in for market cap
		snap.DexURL = pair.URL
		snap.TelegramURL = pair.TelegramURL
	}

	if snap.PriceUSD == nil && fallbackPriceUSD != nil && fallbackPriceUSD.IsPositive() {
		snap.PriceUSD = fallbackPriceUSD
	}

	return snap
}

func (a *Aggregator) resolveTonUSD(ctx context.Context) *decimal.Decimal {
	if cached, ok := a.tonCache.Get(tonPriceKey); ok {
		return &cached
	}

	ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	price, err := a.tonSource.TonUSD(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordProviderError()
		slog.Warn("reference price fetch failed", slog.Any("error", err))
		return nil
	}

	a.tonCache.Put(tonPriceKey, price)
	return &price
}

func (a *Aggregator) resolvePairs(ctx context.Context, tokenAddress string) []domain.TradingPair {
	if cached, ok := a.pairsCache.Get(tokenAddress); ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	pairs, err := a.pairsSource.TokenPairs(ctx, tokenAddress)
	if err != nil {
		infra.GlobalMetrics.RecordProviderError()
		slog.Warn("market data fetch failed",
			slog.String("token", tokenAddress),
			slog.Any("error", err))
		return nil
	}

	a.pairsCache.Put(tokenAddress, pairs)
	return pairs
}

// selectPair picks the pair record to price from: the first record on the
// target chain, or the first record in provider order when none match.
func selectPair(pairs []domain.TradingPair, chainID string) (domain.TradingPair, bool) {
	if len(pairs) == 0 {
		return domain.TradingPair{}, false
	}
	for _, p := range pairs {
		if p.ChainID == chainID {
			return p, true
		}
	}
	return pairs[0], true
}
