// Package poller implements the per-guild polling decision procedure:
// given a guild's watch configuration, decide whether there is exactly
// one eligible video to announce this tick, and guarantee each video
// is announced at most once.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tubebot/internal/model"
	"tubebot/internal/storage"
)

// FreshnessWindow is the maximum age for a newly discovered newest
// video to be classified as "new" rather than "previous".
const FreshnessWindow = 5 * time.Minute

const shortsMarker = "#shorts"

// Provider lists a YouTube channel's uploads. Implemented by
// internal/youtube; engine tests substitute a fake.
type Provider interface {
	ResolveChannel(ctx context.Context, ref string) (string, error)
	ListRecentItems(ctx context.Context, channelID, pageToken string) ([]model.Video, string, error)
}

// Engine decides, once per guild per tick, what to announce.
type Engine struct {
	provider Provider
	store    storage.Storage
	log      *slog.Logger
	now      func() time.Time
	locks    guildLocks
}

// New creates an Engine.
func New(provider Provider, store storage.Storage, log *slog.Logger) *Engine {
	return &Engine{
		provider: provider,
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

// Poll runs the decision procedure for one guild and returns at most
// one announcement, or nil when there is nothing to announce. The
// last-announced record is written before the announcement is
// returned, so a crash after the write loses at most one announcement
// and never duplicates one. Calls for the same guild serialize;
// different guilds are independent.
func (e *Engine) Poll(ctx context.Context, cfg model.GuildConfig) (*model.Announcement, error) {
	unlock := e.locks.lock(cfg.GuildID)
	defer unlock()

	// Re-resolved every poll: handle references are not guaranteed
	// stable, and a cached stale ID would silently break polling.
	channelID, err := e.provider.ResolveChannel(ctx, cfg.YouTubeChannelRef)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", cfg.YouTubeChannelRef, err)
	}

	last, err := e.store.GetLastAnnounced(ctx, channelID)
	if err != nil {
		return nil, err
	}

	items, nextPage, err := e.provider.ListRecentItems(ctx, channelID, "")
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	// Newest pass: the first item surviving the shorts policy is the
	// only candidate on page 1. If it was already announced, fall
	// through to the backfill pass instead of re-announcing.
	if cand := firstEligible(items, cfg.IncludeShorts, ""); cand != nil && cand.ID != last {
		isNew := e.now().Sub(cand.PublishedAt) < FreshnessWindow
		if err := e.store.SetLastAnnounced(ctx, channelID, cand.ID); err != nil {
			return nil, err
		}
		e.log.Debug("announcing newest video",
			"guild_id", cfg.GuildID, "channel_id", channelID, "video_id", cand.ID, "is_new", isNew)
		return &model.Announcement{Video: *cand, IsNew: isNew}, nil
	}

	// Old-item pass: advance real pagination; re-reading page 1 here
	// would make this pass a no-op duplicate of the newest pass.
	if nextPage == "" {
		return nil, nil
	}
	items, _, err = e.provider.ListRecentItems(ctx, channelID, nextPage)
	if err != nil {
		return nil, fmt.Errorf("list older uploads: %w", err)
	}

	cand := firstEligible(items, cfg.IncludeShorts, last)
	if cand == nil {
		return nil, nil
	}
	if err := e.store.SetLastAnnounced(ctx, channelID, cand.ID); err != nil {
		return nil, err
	}
	e.log.Debug("announcing backfilled video",
		"guild_id", cfg.GuildID, "channel_id", channelID, "video_id", cand.ID)
	return &model.Announcement{Video: *cand, IsNew: false}, nil
}

// firstEligible returns the first video in provider order that passes
// the shorts policy and does not match skipID, or nil.
func firstEligible(items []model.Video, includeShorts bool, skipID string) *model.Video {
	for i := range items {
		v := &items[i]
		if v.ID == "" || v.ID == skipID {
			continue
		}
		if !includeShorts && isShort(*v) {
			continue
		}
		return v
	}
	return nil
}

// isShort reports whether a video is marked as a YouTube short. The
// marker may appear in either the title or the description.
func isShort(v model.Video) bool {
	return strings.Contains(strings.ToLower(v.Title), shortsMarker) ||
		strings.Contains(strings.ToLower(v.Description), shortsMarker)
}
