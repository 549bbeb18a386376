package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"tubebot/internal/model"
	"tubebot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveGuildConfig inserts or wholesale-replaces a guild's configuration.
func (s *SQLite) SaveGuildConfig(ctx context.Context, cfg *model.GuildConfig) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guild_configs (guild_id, notification_channel_id, youtube_channel_ref, include_shorts, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET
		   notification_channel_id = excluded.notification_channel_id,
		   youtube_channel_ref = excluded.youtube_channel_ref,
		   include_shorts = excluded.include_shorts`,
		cfg.GuildID, cfg.NotificationChannelID, cfg.YouTubeChannelRef, boolToInt(cfg.IncludeShorts), now,
	)
	if err != nil {
		return fmt.Errorf("save guild config: %w", err)
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt, _ = time.Parse(timeLayout, now)
	}
	return nil
}

// GetGuildConfig returns a single guild's configuration.
func (s *SQLite) GetGuildConfig(ctx context.Context, guildID string) (*model.GuildConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT guild_id, notification_channel_id, youtube_channel_ref, include_shorts, created_at
		 FROM guild_configs WHERE guild_id = ?`, guildID,
	)
	cfg, err := scanGuildConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return cfg, err
}

// ListGuildConfigs returns every configured guild.
func (s *SQLite) ListGuildConfigs(ctx context.Context) ([]model.GuildConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT guild_id, notification_channel_id, youtube_channel_ref, include_shorts, created_at
		 FROM guild_configs ORDER BY guild_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query guild configs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var configs []model.GuildConfig
	for rows.Next() {
		cfg, err := scanGuildConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

// GetLastAnnounced returns the last announced video ID for a channel,
// or "" when the channel has never been announced.
func (s *SQLite) GetLastAnnounced(ctx context.Context, channelID string) (string, error) {
	var videoID string
	err := s.db.QueryRowContext(ctx,
		`SELECT video_id FROM announced_videos WHERE channel_id = ?`, channelID,
	).Scan(&videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get last announced: %w", err)
	}
	return videoID, nil
}

// SetLastAnnounced durably overwrites the last announced video ID for
// a channel. The write is committed before the call returns.
func (s *SQLite) SetLastAnnounced(ctx context.Context, channelID, videoID string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announced_videos (channel_id, video_id, announced_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET
		   video_id = excluded.video_id,
		   announced_at = excluded.announced_at`,
		channelID, videoID, now,
	)
	if err != nil {
		return fmt.Errorf("set last announced: %w", err)
	}
	return nil
}

// SaveSetupSession inserts or replaces a guild's setup session.
func (s *SQLite) SaveSetupSession(ctx context.Context, sess *model.SetupSession) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO setup_sessions (guild_id, channel_id, state, notification_channel_id, youtube_channel_ref, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET
		   channel_id = excluded.channel_id,
		   state = excluded.state,
		   notification_channel_id = excluded.notification_channel_id,
		   youtube_channel_ref = excluded.youtube_channel_ref`,
		sess.GuildID, sess.ChannelID, string(sess.State), sess.NotificationChannelID, sess.YouTubeChannelRef, now,
	)
	if err != nil {
		return fmt.Errorf("save setup session: %w", err)
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt, _ = time.Parse(timeLayout, now)
	}
	return nil
}

// GetSetupSession returns a guild's in-progress setup session.
func (s *SQLite) GetSetupSession(ctx context.Context, guildID string) (*model.SetupSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT guild_id, channel_id, state, notification_channel_id, youtube_channel_ref, created_at
		 FROM setup_sessions WHERE guild_id = ?`, guildID,
	)
	var sess model.SetupSession
	var state, created string
	err := row.Scan(&sess.GuildID, &sess.ChannelID, &state, &sess.NotificationChannelID, &sess.YouTubeChannelRef, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan setup session: %w", err)
	}
	sess.State = model.SetupState(state)
	sess.CreatedAt, _ = time.Parse(timeLayout, created)
	return &sess, nil
}

// DeleteSetupSession removes a guild's setup session if present.
func (s *SQLite) DeleteSetupSession(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM setup_sessions WHERE guild_id = ?`, guildID)
	if err != nil {
		return fmt.Errorf("delete setup session: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanGuildConfig(row scannable) (*model.GuildConfig, error) {
	var cfg model.GuildConfig
	var includeShorts int
	var created sql.NullString
	err := row.Scan(&cfg.GuildID, &cfg.NotificationChannelID, &cfg.YouTubeChannelRef, &includeShorts, &created)
	if err != nil {
		return nil, fmt.Errorf("scan guild config: %w", err)
	}
	cfg.IncludeShorts = includeShorts == 1
	if created.Valid {
		cfg.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &cfg, nil
}
