package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"tubebot/internal/bot"
	"tubebot/internal/config"
	"tubebot/internal/poller"
	"tubebot/internal/scheduler"
	"tubebot/internal/storage"
	"tubebot/internal/youtube"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	yt, err := youtube.New(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		log.Error("create youtube client", "error", err)
		os.Exit(1)
	}

	b, err := bot.New(cfg, store, yt, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	engine := poller.New(yt, store, log)
	sched := scheduler.New(store, engine, b, cfg.PollInterval, log)
	b.SetPoller(sched)

	log.Info("starting bot", "poll_interval", cfg.PollInterval)

	go sched.Run(ctx)

	if err := b.Run(ctx); err != nil {
		log.Error("run bot", "error", err)
		os.Exit(1)
	}

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
