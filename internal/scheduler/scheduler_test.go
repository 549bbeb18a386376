package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tubebot/internal/model"
	"tubebot/internal/poller"
	"tubebot/internal/storage"
)

type sentAnnouncement struct {
	ChannelID string
	VideoID   string
	IsNew     bool
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentAnnouncement
	err  error
}

func (m *mockNotifier) Announce(channelID string, a *model.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentAnnouncement{
		ChannelID: channelID,
		VideoID:   a.Video.ID,
		IsNew:     a.IsNew,
	})
	return nil
}

func (m *mockNotifier) getSent() []sentAnnouncement {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]sentAnnouncement, len(m.sent))
	copy(cp, m.sent)
	return cp
}

// fakeProvider resolves each configured reference to its own channel
// and serves one page of uploads per channel.
type fakeProvider struct {
	channels map[string]string // ref -> channel id
	pages    map[string][]model.Video
	errs     map[string]error // ref -> resolve error
}

func (f *fakeProvider) ResolveChannel(_ context.Context, ref string) (string, error) {
	if err := f.errs[ref]; err != nil {
		return "", err
	}
	id, ok := f.channels[ref]
	if !ok {
		return "", errors.New("unknown ref")
	}
	return id, nil
}

func (f *fakeProvider) ListRecentItems(_ context.Context, channelID, _ string) ([]model.Video, string, error) {
	return f.pages[channelID], "", nil
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedGuild(t *testing.T, store *storage.SQLite, guildID, channelID, ref string) {
	t.Helper()
	cfg := &model.GuildConfig{
		GuildID:               guildID,
		NotificationChannelID: channelID,
		YouTubeChannelRef:     ref,
	}
	if err := store.SaveGuildConfig(context.Background(), cfg); err != nil {
		t.Fatalf("seed guild %s: %v", guildID, err)
	}
}

func newTestScheduler(store *storage.SQLite, provider poller.Provider, notifier Notifier) *Scheduler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := poller.New(provider, store, log)
	return New(store, engine, notifier, time.Hour, log)
}

func TestCheckAllAnnouncesPerGuild(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedGuild(t, store, "guild-a", "chan-a", "ref-a")
	seedGuild(t, store, "guild-b", "chan-b", "ref-b")

	provider := &fakeProvider{
		channels: map[string]string{"ref-a": "UCa", "ref-b": "UCb"},
		pages: map[string][]model.Video{
			"UCa": {{ID: "vid-a", Title: "A", PublishedAt: time.Now().Add(-time.Hour)}},
			"UCb": {{ID: "vid-b", Title: "B", PublishedAt: time.Now().Add(-time.Hour)}},
		},
	}
	notifier := &mockNotifier{}

	s := newTestScheduler(store, provider, notifier)
	s.CheckAll(ctx)

	want := []sentAnnouncement{
		{ChannelID: "chan-a", VideoID: "vid-a"},
		{ChannelID: "chan-b", VideoID: "vid-b"},
	}
	if diff := cmp.Diff(want, notifier.getSent()); diff != "" {
		t.Errorf("announcements mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckAllFailureIsolation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedGuild(t, store, "guild-a", "chan-a", "ref-a")
	seedGuild(t, store, "guild-b", "chan-b", "ref-b")

	provider := &fakeProvider{
		channels: map[string]string{"ref-b": "UCb"},
		pages: map[string][]model.Video{
			"UCb": {{ID: "vid-b", Title: "B", PublishedAt: time.Now().Add(-time.Hour)}},
		},
		errs: map[string]error{"ref-a": errors.New("quota exceeded")},
	}
	notifier := &mockNotifier{}

	s := newTestScheduler(store, provider, notifier)
	s.CheckAll(ctx)

	want := []sentAnnouncement{{ChannelID: "chan-b", VideoID: "vid-b"}}
	if diff := cmp.Diff(want, notifier.getSent()); diff != "" {
		t.Errorf("guild B must announce despite guild A failing (-want +got):\n%s", diff)
	}
}

func TestCheckAllIdempotentAcrossTicks(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedGuild(t, store, "guild-a", "chan-a", "ref-a")

	provider := &fakeProvider{
		channels: map[string]string{"ref-a": "UCa"},
		pages: map[string][]model.Video{
			"UCa": {{ID: "vid-a", Title: "A", PublishedAt: time.Now().Add(-time.Hour)}},
		},
	}
	notifier := &mockNotifier{}

	s := newTestScheduler(store, provider, notifier)
	s.CheckAll(ctx)
	s.CheckAll(ctx)

	if diff := cmp.Diff(1, len(notifier.getSent())); diff != "" {
		t.Errorf("same upstream state must announce once (-want +got):\n%s", diff)
	}
}

func TestCheckAllNotifyFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedGuild(t, store, "guild-a", "chan-a", "ref-a")

	provider := &fakeProvider{
		channels: map[string]string{"ref-a": "UCa"},
		pages: map[string][]model.Video{
			"UCa": {{ID: "vid-a", Title: "A", PublishedAt: time.Now().Add(-time.Hour)}},
		},
	}
	notifier := &mockNotifier{err: errors.New("discord unavailable")}

	s := newTestScheduler(store, provider, notifier)
	s.CheckAll(ctx)

	// The video is cached before sending, so a later tick with a
	// healthy notifier does not repeat it. The announcement is
	// missed, never duplicated.
	notifier.mu.Lock()
	notifier.err = nil
	notifier.mu.Unlock()
	s.CheckAll(ctx)

	if diff := cmp.Diff(0, len(notifier.getSent())); diff != "" {
		t.Errorf("failed send must not be retried (-want +got):\n%s", diff)
	}
}

func TestCheckGuild(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedGuild(t, store, "guild-a", "chan-a", "ref-a")

	provider := &fakeProvider{
		channels: map[string]string{"ref-a": "UCa"},
		pages: map[string][]model.Video{
			"UCa": {{ID: "vid-a", Title: "A", PublishedAt: time.Now().Add(-time.Hour)}},
		},
	}
	notifier := &mockNotifier{}

	s := newTestScheduler(store, provider, notifier)
	s.CheckGuild(ctx, "guild-a")

	want := []sentAnnouncement{{ChannelID: "chan-a", VideoID: "vid-a"}}
	if diff := cmp.Diff(want, notifier.getSent()); diff != "" {
		t.Errorf("announcements mismatch (-want +got):\n%s", diff)
	}

	// Unknown guild logs and does nothing.
	s.CheckGuild(ctx, "guild-missing")
	if diff := cmp.Diff(1, len(notifier.getSent())); diff != "" {
		t.Errorf("unknown guild must not announce (-want +got):\n%s", diff)
	}
}

func TestCheckAllCancelledContext(t *testing.T) {
	store := newTestStore(t)
	seedGuild(t, store, "guild-a", "chan-a", "ref-a")

	provider := &fakeProvider{
		channels: map[string]string{"ref-a": "UCa"},
		pages: map[string][]model.Video{
			"UCa": {{ID: "vid-a", Title: "A", PublishedAt: time.Now().Add(-time.Hour)}},
		},
	}
	notifier := &mockNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScheduler(store, provider, notifier)
	s.CheckAll(ctx)

	if diff := cmp.Diff(0, len(notifier.getSent())); diff != "" {
		t.Errorf("cancelled tick must not announce (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	provider := &fakeProvider{channels: map[string]string{}}
	notifier := &mockNotifier{}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := poller.New(provider, store, log)
	s := New(store, engine, notifier, 10*time.Millisecond, log)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
