// Package bot connects to Discord, runs the guided setup conversation,
// and renders video announcements as embeds.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"tubebot/internal/config"
	"tubebot/internal/model"
	"tubebot/internal/storage"
)

// sender is the slice of the Discord session the bot sends through.
type sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Resolver validates a YouTube channel reference during setup.
type Resolver interface {
	ResolveChannel(ctx context.Context, ref string) (string, error)
}

// Poller runs one immediate poll for a guild after setup completes.
type Poller interface {
	CheckGuild(ctx context.Context, guildID string)
}

// Bot handles Discord events and drives the setup conversation.
type Bot struct {
	session  *discordgo.Session
	sender   sender
	store    storage.Storage
	resolver Resolver
	poller   Poller
	cfg      *config.Config
	log      *slog.Logger
}

// New creates a Bot with a Discord session for the given token.
func New(cfg *config.Config, store storage.Storage, resolver Resolver, log *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	return &Bot{
		session:  session,
		sender:   session,
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		log:      log,
	}, nil
}

// SetPoller wires the component that runs the immediate post-setup
// poll. Set after construction because the scheduler also needs the
// bot as its notifier.
func (b *Bot) SetPoller(p Poller) {
	b.poller = p
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(ctx, m)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	b.log.Info("discord session open")

	<-ctx.Done()
	return b.session.Close()
}

// Announce sends an announcement embed to the given channel. It
// implements the scheduler's Notifier.
func (b *Bot) Announce(channelID string, a *model.Announcement) error {
	if _, err := b.sender.ChannelMessageSendEmbed(channelID, AnnouncementEmbed(a)); err != nil {
		return fmt.Errorf("send announcement embed: %w", err)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	content := strings.TrimSpace(m.Content)

	if strings.HasPrefix(content, b.cfg.CommandPrefix) {
		cmd := strings.ToLower(strings.TrimPrefix(content, b.cfg.CommandPrefix))
		b.log.Debug("command", "cmd", cmd, "guild_id", m.GuildID, "channel_id", m.ChannelID)

		switch cmd {
		case "start":
			b.handleStart(ctx, m)
		case "cancel":
			b.handleCancel(ctx, m)
		case "help":
			b.handleHelp(m.ChannelID)
		}
		return
	}

	sess, err := b.store.GetSetupSession(ctx, m.GuildID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.log.Error("get setup session", "guild_id", m.GuildID, "error", err)
		}
		return
	}
	if m.ChannelID != sess.ChannelID {
		return
	}
	b.handleSetupStep(ctx, m, sess)
}

func (b *Bot) reply(channelID, text string) {
	if _, err := b.sender.ChannelMessageSend(channelID, text); err != nil {
		b.log.Error("send message", "channel_id", channelID, "error", err)
	}
}

func (b *Bot) replyEmbed(channelID string, embed *discordgo.MessageEmbed) {
	if _, err := b.sender.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.log.Error("send embed", "channel_id", channelID, "error", err)
	}
}
