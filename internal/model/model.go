// Package model defines the domain types used across the application.
package model

import "time"

// GuildConfig is a guild's watch configuration. It is created by the
// setup conversation and overwritten wholesale on reconfiguration,
// never partially updated.
type GuildConfig struct {
	GuildID               string
	NotificationChannelID string
	YouTubeChannelRef     string
	IncludeShorts         bool
	CreatedAt             time.Time
}

// Video is a single item from a YouTube channel's uploads, immutable
// once fetched. Channel metadata is stamped on by the provider client.
type Video struct {
	ID             string
	Title          string
	Description    string
	PublishedAt    time.Time
	ThumbnailURL   string
	ChannelTitle   string
	ChannelIconURL string
}

// URL returns the watch link for the video.
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Announcement is the poll engine's decision for one guild in one
// tick. IsNew is true only when the video was discovered as the
// current newest upload and was published within the freshness window.
type Announcement struct {
	Video Video
	IsNew bool
}

// SetupState identifies the current step of a guild's setup conversation.
type SetupState string

// Setup conversation states, in order.
const (
	StateAwaitingChannel     SetupState = "awaiting_channel"
	StateAwaitingYouTubeRef  SetupState = "awaiting_youtube_ref"
	StateAwaitingContentType SetupState = "awaiting_content_type"
)

// SetupSession is an in-progress setup conversation for one guild.
// ChannelID is the channel where !start was issued; the conversation
// only listens there. The session is deleted on completion or cancel.
type SetupSession struct {
	GuildID               string
	ChannelID             string
	State                 SetupState
	NotificationChannelID string
	YouTubeChannelRef     string
	CreatedAt             time.Time
}
