// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultPollInterval is how often configured channels are checked
// when POLL_INTERVAL is not set.
const DefaultPollInterval = 4 * time.Hour

// Config holds the application configuration.
type Config struct {
	DiscordToken  string
	YouTubeAPIKey string
	DatabasePath  string
	LogLevel      string
	PollInterval  time.Duration
	CommandPrefix string
}

// Load reads configuration from environment variables. The Discord
// token and YouTube API key are required; everything else defaults.
func Load() (*Config, error) {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}

	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	interval := DefaultPollInterval
	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: %w", raw, err)
		}
		if d < time.Minute {
			return nil, fmt.Errorf("POLL_INTERVAL %q is below the 1m minimum", raw)
		}
		interval = d
	}

	prefix := os.Getenv("COMMAND_PREFIX")
	if prefix == "" {
		prefix = "!"
	}

	return &Config{
		DiscordToken:  token,
		YouTubeAPIKey: apiKey,
		DatabasePath:  dbPath,
		LogLevel:      logLevel,
		PollInterval:  interval,
		CommandPrefix: prefix,
	}, nil
}
