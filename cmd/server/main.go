package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvallejoc/eventum/internal/api"
	"github.com/mvallejoc/eventum/internal/backend"
	"github.com/mvallejoc/eventum/internal/config"
	"github.com/mvallejoc/eventum/internal/draftstore"
	"github.com/mvallejoc/eventum/internal/engine"
	"github.com/mvallejoc/eventum/internal/session"
	"github.com/mvallejoc/eventum/internal/snapshot"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/eventum.yaml", "Path to YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Event repository client and snapshot ──────────────────────────────────
	repo := backend.New(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond)
	snap := snapshot.NewStore()

	refreshTimeout := time.Duration(cfg.Backend.TimeoutMs) * time.Millisecond
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := snap.Refresh(ctx, repo); err != nil {
			slog.Warn("initial snapshot load failed, conflict checks degraded", "err", err)
		}
	}()
	stopCron, err := snap.StartCron(cfg.Schedule.RefreshCron, repo, refreshTimeout)
	if err != nil {
		slog.Error("invalid refresh schedule", "cron", cfg.Schedule.RefreshCron, "err", err)
		os.Exit(1)
	}
	defer stopCron()

	// ── Form sessions with on-disk drafts ─────────────────────────────────────
	var drafts *draftstore.Store
	if cfg.Drafts.Dir != "" {
		drafts = draftstore.Open(cfg.Drafts.Dir)
	}
	sessions := session.NewManager(drafts, time.Duration(cfg.Form.ClockThrottleMs)*time.Millisecond)
	if n := sessions.Restore(); n > 0 {
		slog.Info("restored draft sessions", "count", n)
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, repo, snap, cfg)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		eng.SwapSchedule(newCfg.Schedule)
		slog.Info("schedule config hot-reloaded",
			"window_minutes", newCfg.Schedule.ConflictWindowMinutes,
			"block_on_conflict", newCfg.Schedule.BlockOnConflict)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, sessions, snap, repo)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop submit workers
	eng.Shutdown()
	slog.Info("goodbye")
}
