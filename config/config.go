package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is constructed once at process start (see FromViper) and passed
// by reference to every component. There are no package-level singletons.
type Config struct {
	Channel  ChannelConfig
	Video    VideoConfig
	LLM      LLMConfig
	TTS      TTSConfig
	Media    MediaConfig
	Curation CurationConfig
	Telegram TelegramConfig
	Publish  PublishConfig
	DB       DBConfig
	Paths    PathsConfig
}

type ChannelConfig struct {
	// Kind selects the content source: "noticias" pulls RSS headlines,
	// "temas" picks a random theme and asks the model for a title.
	Kind          string
	RSSFeeds      []string
	Themes        []string
	FixedKeywords []string
	Persona       string
	PersonaDir    string
}

type VideoConfig struct {
	// Kind is "short" (1080x1920) or "long" (1920x1080).
	Kind        string
	LongMinutes int
	MediaSource string // "bing" or "pexels"
	FFmpegBin   string
}

type LLMConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

type TTSConfig struct {
	Voice           string
	Region          string
	SubscriptionKey string
}

type MediaConfig struct {
	PexelsAPIKey string
	BankDir      string
}

type CurationConfig struct {
	Enabled          bool
	Timeout          time.Duration
	ThumbnailTimeout time.Duration
	PollInterval     time.Duration
	QuietPeriod      time.Duration
	StateFile        string
	ThumbnailFile    string
	AuditPath        string
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

type PublishConfig struct {
	YouTubeCredentials string // authorized user JSON
	TikTokEnabled      bool
	TikTokClientKey    string
	TikTokClientSecret string
	TikTokAccessToken  string
	GitHubToken        string
	GitHubRepository   string // "owner/repo"
}

type DBConfig struct {
	Path string
}

type PathsConfig struct {
	AssetsDir string
	VideosDir string
}

func (c *Config) Validate() error {
	switch strings.TrimSpace(c.Channel.Kind) {
	case "noticias", "temas":
	default:
		return fmt.Errorf("invalid channel.kind: %q (want noticias or temas)", c.Channel.Kind)
	}
	switch strings.TrimSpace(c.Video.Kind) {
	case "short", "long":
	default:
		return fmt.Errorf("invalid video.kind: %q (want short or long)", c.Video.Kind)
	}
	if c.Channel.Kind == "noticias" && len(c.Channel.RSSFeeds) == 0 {
		return fmt.Errorf("channel.kind is noticias but no rss_feeds configured")
	}
	if c.Curation.Enabled {
		if strings.TrimSpace(c.Telegram.BotToken) == "" {
			return fmt.Errorf("curation enabled but telegram.bot_token is empty")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("curation enabled but telegram.chat_id is empty")
		}
	}
	return nil
}
