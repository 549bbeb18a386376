// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"tubebot/internal/model"
)

// Storage is the interface for all persistence operations. Guild
// configs, last-announced records, and setup sessions are independent
// keyed stores; every write is a single durable replace for its key.
type Storage interface {
	SaveGuildConfig(ctx context.Context, cfg *model.GuildConfig) error
	GetGuildConfig(ctx context.Context, guildID string) (*model.GuildConfig, error)
	ListGuildConfigs(ctx context.Context) ([]model.GuildConfig, error)

	// GetLastAnnounced returns the last announced video ID for a
	// YouTube channel, or "" if nothing has been announced yet.
	GetLastAnnounced(ctx context.Context, channelID string) (string, error)
	// SetLastAnnounced durably overwrites the last announced video ID
	// for a YouTube channel.
	SetLastAnnounced(ctx context.Context, channelID, videoID string) error

	SaveSetupSession(ctx context.Context, s *model.SetupSession) error
	GetSetupSession(ctx context.Context, guildID string) (*model.SetupSession, error)
	DeleteSetupSession(ctx context.Context, guildID string) error

	Close() error
}
