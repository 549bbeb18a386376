// Package scheduler drives the fixed-interval poll cycle across all
// configured guilds.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tubebot/internal/model"
	"tubebot/internal/poller"
	"tubebot/internal/storage"
	"tubebot/internal/youtube"
)

// Notifier delivers an announcement to a Discord channel.
type Notifier interface {
	Announce(channelID string, a *model.Announcement) error
}

// Scheduler periodically polls every configured guild and hands
// announcements to the notifier.
type Scheduler struct {
	store    storage.Storage
	engine   *poller.Engine
	notifier Notifier
	log      *slog.Logger
	tick     time.Duration
}

// New creates a Scheduler ticking at the given interval.
func New(store storage.Storage, engine *poller.Engine, notifier Notifier, tick time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		engine:   engine,
		notifier: notifier,
		log:      log,
		tick:     tick,
	}
}

// Run starts the scheduler loop, blocking until ctx is cancelled. An
// in-flight guild poll completes (or times out) before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	s.CheckAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckAll(ctx)
		}
	}
}

// CheckAll polls every configured guild once. A failing guild is
// logged and skipped; it never aborts the tick for other guilds.
func (s *Scheduler) CheckAll(ctx context.Context) {
	configs, err := s.store.ListGuildConfigs(ctx)
	if err != nil {
		s.log.Error("list guild configs", "error", err)
		return
	}

	for _, cfg := range configs {
		if ctx.Err() != nil {
			return
		}
		s.checkGuild(ctx, cfg)
	}
}

// CheckGuild polls a single guild out of band, using the same decision
// procedure as the scheduled tick. Used right after setup completes.
func (s *Scheduler) CheckGuild(ctx context.Context, guildID string) {
	cfg, err := s.store.GetGuildConfig(ctx, guildID)
	if err != nil {
		s.log.Error("get guild config", "guild_id", guildID, "error", err)
		return
	}
	s.checkGuild(ctx, *cfg)
}

func (s *Scheduler) checkGuild(ctx context.Context, cfg model.GuildConfig) {
	s.log.Debug("polling guild", "guild_id", cfg.GuildID, "channel_ref", cfg.YouTubeChannelRef)

	ann, err := s.engine.Poll(ctx, cfg)
	if err != nil {
		if errors.Is(err, youtube.ErrChannelNotFound) {
			s.log.Warn("channel reference did not resolve",
				"guild_id", cfg.GuildID, "channel_ref", cfg.YouTubeChannelRef)
		} else {
			s.log.Error("poll guild", "guild_id", cfg.GuildID, "error", err)
		}
		return
	}
	if ann == nil {
		return
	}

	if err := s.notifier.Announce(cfg.NotificationChannelID, ann); err != nil {
		// The dedup record is already written; losing this send means
		// a missed announcement, never a duplicate.
		s.log.Error("send announcement",
			"guild_id", cfg.GuildID, "video_id", ann.Video.ID, "error", err)
		return
	}

	s.log.Info("announced video",
		"guild_id", cfg.GuildID, "video_id", ann.Video.ID, "is_new", ann.IsNew)
}
