// Package youtube wraps the YouTube Data API v3 as the content
// provider client: channel reference resolution and newest-first
// listing of a channel's uploads. It keeps no state beyond the API
// service handle; deduplication is the caller's concern.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"tubebot/internal/model"
)

// ErrChannelNotFound is returned when a reference does not resolve to
// any channel. Transport, auth, and quota failures are returned as
// ordinary wrapped errors, distinct from this sentinel.
var ErrChannelNotFound = errors.New("youtube channel not found")

const (
	// pageSize is the provider-defined upper bound per uploads page.
	pageSize = 50

	defaultTimeout = 30 * time.Second
)

var channelIDRe = regexp.MustCompile(`^UC[\w-]{22}$`)

// Client calls the YouTube Data API.
type Client struct {
	svc     *ytapi.Service
	timeout time.Duration
}

// New creates a Client authenticated with the given API key.
func New(ctx context.Context, apiKey string) (*Client, error) {
	svc, err := ytapi.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return NewWithService(svc), nil
}

// NewWithService creates a Client around an existing service (useful
// for testing with a stub HTTP transport).
func NewWithService(svc *ytapi.Service) *Client {
	return &Client{svc: svc, timeout: defaultTimeout}
}

// ResolveChannel resolves a user-supplied channel reference to a
// channel ID. Canonical /channel/ URLs and bare UC... IDs are
// extracted directly; handle (@name), /c/, and /user/ references go
// through a channel search, taking the first result. Resolution is
// intentionally not cached: an ambiguous handle may resolve
// differently over time, and a stale ID would silently break polling.
func (c *Client) ResolveChannel(ctx context.Context, ref string) (string, error) {
	if id := extractChannelID(ref); id != "" {
		return id, nil
	}

	name := searchTerm(ref)
	if name == "" {
		return "", ErrChannelNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(name).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("search channel %q: %w", name, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.ChannelId == "" {
		return "", ErrChannelNotFound
	}
	return resp.Items[0].Id.ChannelId, nil
}

// ListRecentItems returns one page of a channel's uploads in provider
// order (newest first on the first page), with channel display
// metadata stamped on each video, and the token for the next page.
func (c *Client) ListRecentItems(ctx context.Context, channelID, pageToken string) ([]model.Video, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chResp, err := c.svc.Channels.List([]string{"snippet", "contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, "", fmt.Errorf("get channel %s: %w", channelID, err)
	}
	if len(chResp.Items) == 0 {
		return nil, "", ErrChannelNotFound
	}

	ch := chResp.Items[0]
	var title, icon, uploads string
	if ch.Snippet != nil {
		title = ch.Snippet.Title
		if ch.Snippet.Thumbnails != nil && ch.Snippet.Thumbnails.Default != nil {
			icon = ch.Snippet.Thumbnails.Default.Url
		}
	}
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		uploads = ch.ContentDetails.RelatedPlaylists.Uploads
	}
	if uploads == "" {
		return nil, "", ErrChannelNotFound
	}

	call := c.svc.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(uploads).
		MaxResults(pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("list uploads for %s: %w", channelID, err)
	}

	videos := make([]model.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil {
			continue
		}
		v := model.Video{
			ID:             item.Snippet.ResourceId.VideoId,
			Title:          item.Snippet.Title,
			Description:    item.Snippet.Description,
			ThumbnailURL:   bestThumbnail(item.Snippet.Thumbnails),
			ChannelTitle:   title,
			ChannelIconURL: icon,
		}
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			v.PublishedAt = t
		}
		videos = append(videos, v)
	}
	return videos, resp.NextPageToken, nil
}

func bestThumbnail(t *ytapi.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	switch {
	case t.High != nil:
		return t.High.Url
	case t.Medium != nil:
		return t.Medium.Url
	case t.Default != nil:
		return t.Default.Url
	}
	return ""
}

// extractChannelID pulls a canonical channel ID out of a reference
// that already encodes one, or returns "".
func extractChannelID(ref string) string {
	ref = strings.TrimSpace(ref)
	if channelIDRe.MatchString(ref) {
		return ref
	}
	if _, after, ok := strings.Cut(ref, "/channel/"); ok {
		id, _, _ := strings.Cut(after, "/")
		id, _, _ = strings.Cut(id, "?")
		if channelIDRe.MatchString(id) {
			return id
		}
	}
	return ""
}

// searchTerm extracts the name to search for from a handle, /c/, or
// /user/ style reference, or returns "" for unrecognized references.
func searchTerm(ref string) string {
	ref = strings.TrimSpace(strings.TrimSuffix(ref, "/"))
	if _, after, ok := strings.Cut(ref, "@"); ok {
		name, _, _ := strings.Cut(after, "/")
		return name
	}
	for _, marker := range []string{"/c/", "/user/"} {
		if _, after, ok := strings.Cut(ref, marker); ok {
			name, _, _ := strings.Cut(after, "/")
			return name
		}
	}
	return ""
}
