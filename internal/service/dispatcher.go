package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"tonbuybot/internal/domain"
	"tonbuybot/internal/infra"
	"tonbuybot/internal/render"
)

// OutcomeStatus classifies one delivery attempt.
type OutcomeStatus string

const (
	OutcomeDelivered OutcomeStatus = "delivered"
	OutcomeFiltered  OutcomeStatus = "filtered"
	OutcomeStale     OutcomeStatus = "skipped_stale"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome records what happened to one destination during a dispatch
// cycle. Failures carry the transport error for observability; they are
// never propagated.
type Outcome struct {
	ChatID int64
	Status OutcomeStatus
	Err    error
}

// MediaResolver turns a remote media URL into a local, normalized file.
// Implemented by infra.MediaFetcher; nil disables media normalization.
type MediaResolver interface {
	Fetch(ctx context.Context, key, url string) (string, error)
}

// DefaultLinks are the button URLs used when a destination has no
// per-chat overrides.
type DefaultLinks struct {
	TrendingURL    string
	BookTrendURL   string
	DtradeReferral string
}

// Dispatcher fans one buy event out to every destination tracking the
// token. The snapshot is resolved once and the text rendered once per
// event; per-destination work is delivery mechanics only. One failing
// destination never affects the others.
type Dispatcher struct {
	aggregator     *Aggregator
	renderer       *render.Renderer
	transport      domain.ChatTransport
	store          domain.DestinationStore
	media          MediaResolver
	defaults       DefaultLinks
	trendingChatID int64
	decimals       int32
	concurrency    int
}

// NewDispatcher creates a dispatcher. trendingChatID of 0 disables the
// global broadcast channel. media may be nil.
func NewDispatcher(
	aggregator *Aggregator,
	renderer *render.Renderer,
	transport domain.ChatTransport,
	store domain.DestinationStore,
	media MediaResolver,
	defaults DefaultLinks,
	trendingChatID int64,
	decimals int32,
	concurrency int,
) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Dispatcher{
		aggregator:     aggregator,
		renderer:       renderer,
		transport:      transport,
		store:          store,
		media:          media,
		defaults:       defaults,
		trendingChatID: trendingChatID,
		decimals:       decimals,
		concurrency:    concurrency,
	}
}

// Dispatch runs one cycle for one buy event. External market-data calls
// are bounded to one resolution per event regardless of how many chats
// track the token. The returned outcomes cover every destination plus the
// global channel when configured.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.BuyEvent, dests []domain.Destination, fallbackPriceUSD *decimal.Decimal) []Outcome {
	defer infra.GlobalMetrics.RecordCycle()

	snapshot := d.aggregator.Resolve(ctx, ev.TokenAddress, fallbackPriceUSD)
	note := d.renderer.Render(ev, snapshot)
	displayAmount := ev.DisplayAmount(d.decimals)

	outcomes := make([]Outcome, len(dests))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, d.concurrency)

	for i, dest := range dests {
		wg.Add(1)
		go func(i int, dest domain.Destination) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				outcomes[i] = Outcome{ChatID: dest.ChatID, Status: OutcomeFailed, Err: ctx.Err()}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			outcomes[i] = d.deliver(ctx, ev, dest, note, displayAmount)
		}(i, dest)
	}
	wg.Wait()

	// The global channel is independent of per-destination filtering and
	// never gates it.
	if d.trendingChatID != 0 {
		outcomes = append(outcomes, d.deliverTrending(ctx, ev, note))
	}

	return outcomes
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.BuyEvent, dest domain.Destination, note domain.RenderedNotification, displayAmount decimal.Decimal) Outcome {
	// The chat may have untracked the token between scheduling and now.
	// That is not a delivery failure.
	if exists, err := d.store.StillExists(dest.ChatID, dest.TokenAddress); err == nil && !exists {
		infra.GlobalMetrics.RecordStaleSkip()
		slog.Warn("destination vanished mid-cycle, skipping",
			slog.Int64("chat_id", dest.ChatID),
			slog.String("token", dest.TokenAddress))
		return Outcome{ChatID: dest.ChatID, Status: OutcomeStale}
	}

	if !PassesThreshold(dest, displayAmount) {
		return Outcome{ChatID: dest.ChatID, Status: OutcomeFiltered}
	}

	buttons := d.buttons(dest, ev.TokenAddress)

	var firstErr error
	send := func(do func() error) {
		if err := do(); err != nil {
			infra.GlobalMetrics.RecordDeliveryFailure()
			slog.Error("delivery failed",
				slog.Int64("chat_id", dest.ChatID),
				slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		infra.GlobalMetrics.RecordDelivery()
	}

	// Attachments take precedence over plain text; a chat with both a
	// photo and an animation gets both as separate deliveries.
	switch {
	case dest.HasMedia():
		if dest.PhotoRef != "" {
			ref := d.resolveMedia(ctx, dest, dest.PhotoRef)
			send(func() error {
				return d.transport.SendPhoto(ctx, dest.ChatID, ref, note.Text, buttons)
			})
		}
		if dest.AnimationRef != "" {
			send(func() error {
				return d.transport.SendAnimation(ctx, dest.ChatID, dest.AnimationRef, note.Text, buttons)
			})
		}
	default:
		send(func() error {
			return d.transport.SendText(ctx, dest.ChatID, note.Text, buttons)
		})
	}

	if firstErr != nil {
		return Outcome{ChatID: dest.ChatID, Status: OutcomeFailed, Err: firstErr}
	}
	return Outcome{ChatID: dest.ChatID, Status: OutcomeDelivered}
}

func (d *Dispatcher) deliverTrending(ctx context.Context, ev domain.BuyEvent, note domain.RenderedNotification) Outcome {
	buttons := d.buttons(domain.Destination{}, ev.TokenAddress)

	if err := d.transport.SendText(ctx, d.trendingChatID, note.Text, buttons); err != nil {
		infra.GlobalMetrics.RecordDeliveryFailure()
		slog.Error("trending channel delivery failed",
			slog.Int64("chat_id", d.trendingChatID),
			slog.Any("error", err))
		return Outcome{ChatID: d.trendingChatID, Status: OutcomeFailed, Err: err}
	}
	infra.GlobalMetrics.RecordDelivery()
	return Outcome{ChatID: d.trendingChatID, Status: OutcomeDelivered}
}

// resolveMedia normalizes an http(s) media ref to a cached local file.
// Any fetch problem falls back to the raw ref so delivery still happens.
func (d *Dispatcher) resolveMedia(ctx context.Context, dest domain.Destination, ref string) string {
	if d.media == nil || !strings.HasPrefix(ref, "http") {
		return ref
	}
	key := fmt.Sprintf("%s-%d", dest.TokenAddress, dest.ChatID)
	path, err := d.media.Fetch(ctx, key, ref)
	if err != nil {
		slog.Warn("media fetch failed, sending raw ref",
			slog.Int64("chat_id", dest.ChatID),
			slog.Any("error", err))
		return ref
	}
	return path
}

// buttons assembles the inline keyboard for one destination, preferring
// per-chat link overrides over the configured defaults.
func (d *Dispatcher) buttons(dest domain.Destination, tokenAddress string) []domain.Link {
	trending := dest.TrendingURL
	if trending == "" {
		trending = d.defaults.TrendingURL
	}
	bookTrend := dest.BookTrendURL
	if bookTrend == "" {
		bookTrend = d.defaults.BookTrendURL
	}
	dtrade := dest.DtradeRef
	if dtrade == "" {
		dtrade = d.defaults.DtradeReferral
	}

	var buttons []domain.Link
	if bookTrend != "" {
		buttons = append(buttons, domain.Link{Label: "🔥 Book Trending", URL: bookTrend})
	}
	if trending != "" {
		buttons = append(buttons, domain.Link{Label: "📈 Trending", URL: trending})
	}
	if dtrade != "" && tokenAddress != "" {
		buttons = append(buttons, domain.Link{Label: "⚡️ Buy with DTrade", URL: dtrade + "_" + tokenAddress})
	}
	return buttons
}
