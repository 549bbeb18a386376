package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"tubebot/internal/model"
)

const (
	colorRed   = 0xE74C3C
	colorBlue  = 0x3498DB
	colorGreen = 0x2ECC71

	youtubeIconURL = "https://www.youtube.com/favicon.ico"
)

// AnnouncementEmbed renders a poll decision as a Discord embed:
// thumbnail, channel author line, linked title, new/previous status,
// and relative age.
func AnnouncementEmbed(a *model.Announcement) *discordgo.MessageEmbed {
	status := "📺 Previous Video"
	color := colorBlue
	if a.IsNew {
		status = "🎥 New Video!"
		color = colorRed
	}

	v := a.Video
	return &discordgo.MessageEmbed{
		URL:   v.URL(),
		Color: color,
		// The author link guesses the handle from the display name
		// with spaces stripped. It can point at the wrong place when
		// the handle differs from the title; that is the established
		// behavior, keep it.
		Author: &discordgo.MessageEmbedAuthor{
			Name:    v.ChannelTitle,
			URL:     "https://www.youtube.com/@" + strings.ReplaceAll(v.ChannelTitle, " ", ""),
			IconURL: v.ChannelIconURL,
		},
		Description: fmt.Sprintf("[%s](%s)\n\n**%s** • %s",
			v.Title, v.URL(), status, RelativeAge(time.Now(), v.PublishedAt)),
		Image: &discordgo.MessageEmbedImage{
			URL: v.ThumbnailURL,
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    "YouTube",
			IconURL: youtubeIconURL,
		},
	}
}

// RelativeAge renders how long ago a video was published: whole days
// if at least a day old, else whole hours if at least an hour old,
// else minutes.
func RelativeAge(now, publishedAt time.Time) string {
	d := now.Sub(publishedAt)
	if d < 0 {
		d = 0
	}
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	}
}

func welcomeEmbed(prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎮 Bot Setup",
		Description: "Welcome to the YouTube notification setup assistant!",
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "📝 How it works",
				Value: "I will guide you step by step. Each step asks for one piece of information.",
			},
			{
				Name:  "1️⃣ Notification channel",
				Value: "First, mention the channel that should receive notifications.\nExample: `#notifications`",
			},
			{
				Name: "⚠️ Important",
				Value: fmt.Sprintf("• You can cancel at any time with `%[1]scancel`\n• `%[1]sstart` only works in this channel while setup is running", prefix),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "YouTube", IconURL: youtubeIconURL},
	}
}

func channelConfiguredEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Notification channel set!",
		Description: "Great! Now let's pick the YouTube channel.",
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "2️⃣ YouTube channel",
				Value: "Send the URL of the YouTube channel to watch.\nExample: `https://www.youtube.com/@channel`",
			},
			{
				Name:  "💡 Tip",
				Value: "Any YouTube channel URL format works:\n• `https://www.youtube.com/@channel`\n• `https://www.youtube.com/c/channel`\n• `https://www.youtube.com/channel/ID`",
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "YouTube", IconURL: youtubeIconURL},
	}
}

func refConfiguredEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ YouTube channel set!",
		Description: "Perfect! Now choose the content type.",
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "3️⃣ Content type",
				Value: "Choose what you want to be notified about:",
			},
			{
				Name:   "1️⃣ Videos only",
				Value:  "Notifications for regular videos (no shorts)",
				Inline: true,
			},
			{
				Name:   "2️⃣ Videos and shorts",
				Value:  "Notifications for regular videos and shorts",
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "YouTube", IconURL: youtubeIconURL},
	}
}

func completedEmbed(cfg *model.GuildConfig, prefix string) *discordgo.MessageEmbed {
	contentType := "Videos only"
	if cfg.IncludeShorts {
		contentType = "Videos and shorts"
	}
	return &discordgo.MessageEmbed{
		Title:       "🎉 Setup complete!",
		Description: "The bot is configured. You will now receive notifications for new videos.",
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📢 Notification channel", Value: fmt.Sprintf("<#%s>", cfg.NotificationChannelID), Inline: true},
			{Name: "🎥 YouTube channel", Value: cfg.YouTubeChannelRef, Inline: true},
			{Name: "📝 Content type", Value: contentType, Inline: true},
			{
				Name:  "⚙️ Commands",
				Value: fmt.Sprintf("• `%[1]sstart` — run setup again\n• `%[1]scancel` — cancel a running setup", prefix),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "YouTube", IconURL: youtubeIconURL},
	}
}

func cancelEmbed(prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Setup cancelled",
		Description: fmt.Sprintf("The setup was cancelled. Use `%sstart` to begin again.", prefix),
		Color:       colorRed,
	}
}
