package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tonbuybot/internal/app"
	"tonbuybot/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Background media cache warm-up
	go bootstrap.WarmMediaCache(ctx)

	// 5. Start the trade watcher (poll loop)
	bootstrap.Watcher.Start(ctx)
	defer bootstrap.Watcher.Stop()
	slog.InfoContext(ctx, "✅ Trade watcher started",
		slog.Int("poll_seconds", bootstrap.Config.Watch.PollSeconds))

	slog.InfoContext(ctx, "✨ TON Buy Bot fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
	slog.Info("Final metrics", slog.Any("counters", infra.GlobalMetrics.Snapshot()))
}
