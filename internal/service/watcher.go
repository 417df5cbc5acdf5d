package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/domain"
	"tonbuybot/internal/infra"
	"tonbuybot/internal/infra/storage"
)

// TradeSource is the feed the watcher polls for pool listings and trades.
type TradeSource interface {
	TokenPools(ctx context.Context, network, tokenAddress string) ([]domain.Pool, error)
	Trades(ctx context.Context, network, poolAddress string, limit int) ([]domain.Trade, error)
}

// WatchStore is the persistence the watcher needs: tracked tokens, their
// destinations, per-token progress, and the fallback price ticker.
type WatchStore interface {
	TrackedTokens() ([]string, error)
	ListDestinationsTracking(tokenAddress string) ([]domain.Destination, error)
	WatchState(tokenAddress string) (storage.WatchStateRow, error)
	SetWatchState(row storage.WatchStateRow) error
	LastPrice(tokenAddress string) (*decimal.Decimal, error)
	SetLastPrice(tokenAddress string, price decimal.Decimal) error
}

// Watcher polls the trade feed for every tracked token and hands each new
// buy to the dispatcher. Feed errors skip the cycle; the next tick retries.
type Watcher struct {
	source       TradeSource
	store        WatchStore
	dispatcher   *Dispatcher
	network      string
	decimals     int32
	pollInterval time.Duration
	pageSize     int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher.
func NewWatcher(source TradeSource, store WatchStore, dispatcher *Dispatcher, network string, decimals int32, pollInterval time.Duration, pageSize int) *Watcher {
	if pollInterval < 5*time.Second {
		pollInterval = 5 * time.Second
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	return &Watcher{
		source:       source,
		store:        store,
		dispatcher:   dispatcher,
		network:      network,
		decimals:     decimals,
		pollInterval: pollInterval,
		pageSize:     pageSize,
	}
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("watcher panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()

		w.RunCycle(ctx)
		for {
			select {
			case <-ctx.Done():
				slog.Info("watcher stopped")
				return
			case <-ticker.C:
				w.RunCycle(ctx)
			}
		}
	}()
}

// Stop stops polling and waits for the in-flight cycle.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		w.wg.Wait()
	}
}

// RunCycle polls every tracked token once.
func (w *Watcher) RunCycle(ctx context.Context) {
	tokens, err := w.store.TrackedTokens()
	if err != nil {
		slog.Error("failed to list tracked tokens", slog.Any("error", err))
		return
	}

	for _, token := range tokens {
		if ctx.Err() != nil {
			return
		}
		w.pollToken(ctx, token)
	}
}

func (w *Watcher) pollToken(ctx context.Context, token string) {
	state, err := w.store.WatchState(token)
	if err != nil {
		slog.Error("failed to load watch state", slog.String("token", token), slog.Any("error", err))
		return
	}

	freshPool := false
	if state.PoolAddress == "" {
		pool, ok := w.findBestPool(ctx, token)
		if !ok {
			return
		}
		state.PoolAddress = pool.Address
		state.Dex = pool.Dex
		if pool.Holders != nil {
			state.Holders = *pool.Holders
		}
		// Persist immediately so quiet tokens do not rediscover the pool
		// every cycle.
		if err := w.store.SetWatchState(state); err != nil {
			slog.Error("failed to store watch state", slog.String("token", token), slog.Any("error", err))
		}
		freshPool = true
	}

	trades, err := w.source.Trades(ctx, w.network, state.PoolAddress, w.pageSize)
	if err != nil {
		infra.GlobalMetrics.RecordProviderError()
		slog.Warn("trade poll failed", slog.String("token", token), slog.Any("error", err))
		return
	}

	newTrades := sinceLastSeen(trades, state.LastTradeID)
	if len(newTrades) == 0 {
		return
	}

	dests, err := w.store.ListDestinationsTracking(token)
	if err != nil {
		slog.Error("failed to list destinations", slog.String("token", token), slog.Any("error", err))
		return
	}

	symbol := tokenSymbol(dests)
	fallback, _ := w.store.LastPrice(token)

	// There are alerts to send, so refresh the holder count first. Pool
	// discovery already reported it when the pool is new.
	if !freshPool {
		if h, ok := w.poolHolders(ctx, token, state.PoolAddress); ok {
			state.Holders = h
		}
	}
	var holders *int64
	if state.Holders > 0 {
		h := state.Holders
		holders = &h
	}

	for _, tr := range newTrades {
		if tr.IsBuy() {
			ev := domain.BuyEvent{
				TokenSymbol:   symbol,
				TokenAddress:  token,
				Dex:           state.Dex,
				TransactionID: tr.TxHash,
				BuyerAddress:  tr.Buyer,
				RawAmount:     tr.TokenAmount.Shift(w.decimals),
				HoldersCount:  holders,
			}
			w.dispatcher.Dispatch(ctx, ev, dests, fallback)

			// Keep the ticker fresh so the next cycle has a fallback
			// price even if the market-data provider goes dark.
			if tr.VolumeUSD != nil && tr.TokenAmount.IsPositive() {
				price := tr.VolumeUSD.Div(tr.TokenAmount)
				if err := w.store.SetLastPrice(token, price); err != nil {
					slog.Warn("failed to store last price", slog.String("token", token), slog.Any("error", err))
				}
				fallback = &price
			}
		}

		// Advance past every trade, buys and sells alike, so a restart
		// never replays old alerts.
		state.LastTradeID = tr.ID
		if err := w.store.SetWatchState(state); err != nil {
			slog.Error("failed to store watch state", slog.String("token", token), slog.Any("error", err))
		}
	}
}

// poolHolders re-reads the holder count for the watched pool.
func (w *Watcher) poolHolders(ctx context.Context, token, poolAddress string) (int64, bool) {
	pools, err := w.source.TokenPools(ctx, w.network, token)
	if err != nil {
		slog.Warn("holders refresh failed", slog.String("token", token), slog.Any("error", err))
		return 0, false
	}
	for _, p := range pools {
		if p.Address == poolAddress && p.Holders != nil {
			return *p.Holders, true
		}
	}
	return 0, false
}

// findBestPool picks the deepest pool trading the token.
func (w *Watcher) findBestPool(ctx context.Context, token string) (domain.Pool, bool) {
	pools, err := w.source.TokenPools(ctx, w.network, token)
	if err != nil {
		infra.GlobalMetrics.RecordProviderError()
		slog.Warn("pool lookup failed", slog.String("token", token), slog.Any("error", err))
		return domain.Pool{}, false
	}
	if len(pools) == 0 {
		slog.Warn("no pools for token", slog.String("token", token))
		return domain.Pool{}, false
	}

	best := pools[0]
	for _, p := range pools[1:] {
		if p.ReserveUSD.GreaterThan(best.ReserveUSD) {
			best = p
		}
	}
	return best, true
}

// sinceLastSeen returns the trades newer than lastID in oldest-first
// order. The feed reports newest first.
func sinceLastSeen(trades []domain.Trade, lastID string) []domain.Trade {
	var fresh []domain.Trade
	for _, tr := range trades {
		if tr.ID == "" {
			continue
		}
		if lastID != "" && tr.ID == lastID {
			break
		}
		fresh = append(fresh, tr)
	}
	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}
	return fresh
}

func tokenSymbol(dests []domain.Destination) string {
	for _, d := range dests {
		if d.TokenSymbol != "" {
			return d.TokenSymbol
		}
	}
	return "TOKEN"
}
