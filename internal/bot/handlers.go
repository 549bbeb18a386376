package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"tubebot/internal/model"
	"tubebot/internal/storage"
	"tubebot/internal/youtube"
)

func (b *Bot) handleStart(ctx context.Context, m *discordgo.MessageCreate) {
	sess, err := b.store.GetSetupSession(ctx, m.GuildID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		b.log.Error("get setup session", "guild_id", m.GuildID, "error", err)
		b.reply(m.ChannelID, "Something went wrong, please try again.")
		return
	}
	if sess != nil && m.ChannelID != sess.ChannelID {
		b.reply(m.ChannelID, fmt.Sprintf("%sstart can only be used in <#%s> while setup is in progress.",
			b.cfg.CommandPrefix, sess.ChannelID))
		return
	}

	newSess := &model.SetupSession{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		State:     model.StateAwaitingChannel,
	}
	if err := b.store.SaveSetupSession(ctx, newSess); err != nil {
		b.log.Error("save setup session", "guild_id", m.GuildID, "error", err)
		b.reply(m.ChannelID, "Something went wrong, please try again.")
		return
	}

	b.replyEmbed(m.ChannelID, welcomeEmbed(b.cfg.CommandPrefix))
}

func (b *Bot) handleCancel(ctx context.Context, m *discordgo.MessageCreate) {
	_, err := b.store.GetSetupSession(ctx, m.GuildID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(m.ChannelID, "There is no setup in progress.")
		return
	}
	if err != nil {
		b.log.Error("get setup session", "guild_id", m.GuildID, "error", err)
		return
	}

	if err := b.store.DeleteSetupSession(ctx, m.GuildID); err != nil {
		b.log.Error("delete setup session", "guild_id", m.GuildID, "error", err)
		b.reply(m.ChannelID, "Something went wrong, please try again.")
		return
	}
	b.replyEmbed(m.ChannelID, cancelEmbed(b.cfg.CommandPrefix))
}

func (b *Bot) handleHelp(channelID string) {
	b.reply(channelID, fmt.Sprintf(`YouTube notification bot.

%[1]sstart — configure notifications for this server
%[1]scancel — cancel the setup in progress
%[1]shelp — this message

Setup asks for the notification channel, the YouTube channel URL,
and whether to include shorts. The configured channel is checked
for new videos on a fixed schedule.`, b.cfg.CommandPrefix))
}

func (b *Bot) handleSetupStep(ctx context.Context, m *discordgo.MessageCreate, sess *model.SetupSession) {
	switch sess.State {
	case model.StateAwaitingChannel:
		b.stepChannel(ctx, m, sess)
	case model.StateAwaitingYouTubeRef:
		b.stepYouTubeRef(ctx, m, sess)
	case model.StateAwaitingContentType:
		b.stepContentType(ctx, m, sess)
	default:
		b.log.Warn("unknown setup state", "guild_id", sess.GuildID, "state", sess.State)
	}
}

func (b *Bot) stepChannel(ctx context.Context, m *discordgo.MessageCreate, sess *model.SetupSession) {
	channelID, ok := ParseChannelMention(m.Content)
	if !ok {
		b.reply(m.ChannelID, "Please mention a channel using #, for example #notifications.")
		return
	}

	sess.NotificationChannelID = channelID
	sess.State = model.StateAwaitingYouTubeRef
	if err := b.store.SaveSetupSession(ctx, sess); err != nil {
		b.log.Error("save setup session", "guild_id", sess.GuildID, "error", err)
		b.reply(m.ChannelID, "Something went wrong, please try again.")
		return
	}
	b.replyEmbed(m.ChannelID, channelConfiguredEmbed())
}

func (b *Bot) stepYouTubeRef(ctx context.Context, m *discordgo.MessageCreate, sess *model.SetupSession) {
	ref, ok := ParseYouTubeRef(m.Content)
	if !ok {
		b.reply(m.ChannelID, "Please send a valid YouTube channel URL.")
		return
	}

	// Validate the reference now so a typo is caught during setup
	// instead of failing silently on every poll.
	if _, err := b.resolver.ResolveChannel(ctx, ref); err != nil {
		if errors.Is(err, youtube.ErrChannelNotFound) {
			b.reply(m.ChannelID, "Could not find that YouTube channel. Check the URL and try again.")
		} else {
			b.log.Error("resolve channel", "guild_id", sess.GuildID, "ref", ref, "error", err)
			b.reply(m.ChannelID, "YouTube is not reachable right now. Please try again in a moment.")
		}
		return
	}

	sess.YouTubeChannelRef = ref
	sess.State = model.StateAwaitingContentType
	if err := b.store.SaveSetupSession(ctx, sess); err != nil {
		b.log.Error("save setup session", "guild_id", sess.GuildID, "error", err)
		b.reply(m.ChannelID, "Something went wrong, please try again.")
		return
	}
	b.replyEmbed(m.ChannelID, refConfiguredEmbed())
}

func (b *Bot) stepContentType(ctx context.Context, m *discordgo.MessageCreate, sess *model.SetupSession) {
	includeShorts, ok := ParseContentChoice(m.Content)
	if !ok {
		b.reply(m.ChannelID, "Please type 1 for videos only, or 2 for videos and shorts.")
		return
	}

	cfg := &model.GuildConfig{
		GuildID:               sess.GuildID,
		NotificationChannelID: sess.NotificationChannelID,
		YouTubeChannelRef:     sess.YouTubeChannelRef,
		IncludeShorts:         includeShorts,
	}
	if err := b.store.SaveGuildConfig(ctx, cfg); err != nil {
		b.log.Error("save guild config", "guild_id", sess.GuildID, "error", err)
		b.reply(m.ChannelID, "Something went wrong, please try again.")
		return
	}
	if err := b.store.DeleteSetupSession(ctx, sess.GuildID); err != nil {
		b.log.Error("delete setup session", "guild_id", sess.GuildID, "error", err)
	}

	b.replyEmbed(m.ChannelID, completedEmbed(cfg, b.cfg.CommandPrefix))

	// One immediate poll with the fresh config, same decision
	// procedure as the scheduled tick.
	if b.poller != nil {
		b.poller.CheckGuild(ctx, sess.GuildID)
	}
}
