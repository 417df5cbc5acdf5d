package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/cache"
	"tonbuybot/internal/domain"
	"tonbuybot/internal/infra"
	"tonbuybot/internal/infra/storage"
	"tonbuybot/internal/render"
	"tonbuybot/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Dispatcher *service.Dispatcher
	Watcher    *service.Watcher

	media *infra.MediaFetcher
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, DB, clients,
// dispatcher, watcher)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping TON Buy Bot...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Media fetcher for token logos and custom chat media
	media, err := infra.NewMediaFetcher("")
	if err != nil {
		slog.Warn("Media fetcher unavailable, sending raw refs", slog.Any("error", err))
	}
	b.media = media

	// 5. Market data aggregation
	tonClient := infra.NewTonPriceClient(cfg.Providers.TonPriceURL)
	dexClient := infra.NewDexScreenerClient(cfg.Providers.DexScreenerURL)
	aggregator := service.NewAggregator(
		tonClient,
		dexClient,
		cache.New[decimal.Decimal](time.Duration(cfg.Providers.TonPriceTTLSec)*time.Second),
		cache.New[[]domain.TradingPair](time.Duration(cfg.Providers.DexDataTTLSec)*time.Second),
		cfg.Chain.Network,
		time.Duration(cfg.Providers.FetchTimeoutSec)*time.Second,
	)

	// 6. Rendering and delivery
	renderer := render.NewRenderer(cfg.Chain.Decimals, cfg.DexDisplay, render.LinkTemplates{
		ExplorerTx: cfg.Links.ExplorerTxURL,
		GTToken:    cfg.Links.GTTokenURL,
		DexSToken:  cfg.Links.DexSTokenURL,
		Trending:   cfg.Links.TrendingURL,
	})

	transport := infra.NewTelegramClient(cfg.Bot.APIBaseURL, cfg.Bot.Token)

	var resolver service.MediaResolver
	if media != nil {
		resolver = media
	}
	b.Dispatcher = service.NewDispatcher(
		aggregator,
		renderer,
		transport,
		store,
		resolver,
		service.DefaultLinks{
			TrendingURL:    cfg.Links.TrendingURL,
			BookTrendURL:   cfg.Links.BookTrendURL,
			DtradeReferral: cfg.Links.DtradeReferral,
		},
		cfg.Bot.TrendingChatID,
		cfg.Chain.Decimals,
		cfg.Dispatch.Concurrency,
	)

	// 7. Trade watcher
	feed := infra.NewGeckoTerminalClient(cfg.Providers.GeckoTerminalURL)
	b.Watcher = service.NewWatcher(
		feed,
		store,
		b.Dispatcher,
		cfg.Chain.Network,
		cfg.Chain.Decimals,
		time.Duration(cfg.Watch.PollSeconds)*time.Second,
		cfg.Watch.TradePageSize,
	)

	slog.Info("✅ Dispatcher and watcher ready")
	return nil
}

// WarmMediaCache pre-fetches token logos for every tracked token in the
// background so the first alert does not pay the download cost.
func (b *Bootstrap) WarmMediaCache(ctx context.Context) {
	if b.media == nil {
		return
	}

	tokens, err := b.Storage.TrackedTokens()
	if err != nil {
		slog.Error("Failed to list tracked tokens", slog.Any("error", err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	slog.Info("🔄 Warming media cache...", slog.Int("tokens", len(tokens)))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, token := range tokens {
		dests, err := b.Storage.ListDestinationsTracking(token)
		if err != nil {
			continue
		}
		for _, dest := range dests {
			if dest.PhotoRef == "" || !isRemoteRef(dest.PhotoRef) {
				continue
			}
			wg.Add(1)
			go func(dest domain.Destination) {
				defer wg.Done()
				select {
				case <-ctx.Done():
					return
				case semaphore <- struct{}{}: // Acquire
				}
				defer func() { <-semaphore }() // Release

				// Same key scheme the dispatcher uses, so the warm copy
				// is the one later deliveries hit.
				key := fmt.Sprintf("%s-%d", dest.TokenAddress, dest.ChatID)
				if _, err := b.media.Fetch(ctx, key, dest.PhotoRef); err != nil {
					slog.Warn("Failed to warm media",
						slog.String("token", dest.TokenAddress),
						slog.Any("error", err))
				}
			}(dest)
		}
	}

	wg.Wait()
	slog.Info("✨ Media cache warm")
}

func isRemoteRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
