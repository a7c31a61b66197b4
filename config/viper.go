package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sgt-cod/youtube-automation-news/internal/pathutil"
)

// FromViper reads the process configuration. Secrets come from the
// environment (bound in cmd); everything else from the config file.
func FromViper() *Config {
	cfg := &Config{
		Channel: ChannelConfig{
			Kind:          firstNonEmpty(viper.GetString("channel.kind"), "noticias"),
			RSSFeeds:      viper.GetStringSlice("channel.rss_feeds"),
			Themes:        viper.GetStringSlice("channel.temas"),
			FixedKeywords: viper.GetStringSlice("channel.palavras_chave_fixas"),
			Persona:       strings.TrimSpace(viper.GetString("channel.persona")),
			PersonaDir:    pathutil.ExpandHomePath(firstNonEmpty(viper.GetString("channel.persona_dir"), "personas")),
		},
		Video: VideoConfig{
			Kind:        firstNonEmpty(viper.GetString("video.kind"), "short"),
			LongMinutes: intOrDefault(viper.GetInt("video.duracao_minutos"), 10),
			MediaSource: firstNonEmpty(viper.GetString("video.fonte_midias"), "pexels"),
			FFmpegBin:   firstNonEmpty(viper.GetString("video.ffmpeg_bin"), "ffmpeg"),
		},
		LLM: LLMConfig{
			Endpoint: strings.TrimSpace(viper.GetString("llm.endpoint")),
			APIKey:   strings.TrimSpace(viper.GetString("llm.api_key")),
			Model:    firstNonEmpty(viper.GetString("llm.model"), "gpt-4o-mini"),
		},
		TTS: TTSConfig{
			Voice:           firstNonEmpty(viper.GetString("tts.voz"), "pt-BR-FranciscaNeural"),
			Region:          firstNonEmpty(viper.GetString("tts.region"), "eastus"),
			SubscriptionKey: strings.TrimSpace(viper.GetString("tts.subscription_key")),
		},
		Media: MediaConfig{
			PexelsAPIKey: strings.TrimSpace(viper.GetString("media.pexels_api_key")),
			BankDir:      pathutil.ExpandHomePath(viper.GetString("media.bank_dir")),
		},
		Curation: CurationConfig{
			Enabled:          viper.GetBool("curation.enabled"),
			Timeout:          durationOrDefault(viper.GetDuration("curation.timeout"), time.Hour),
			ThumbnailTimeout: durationOrDefault(viper.GetDuration("curation.thumbnail_timeout"), 20*time.Minute),
			PollInterval:     durationOrDefault(viper.GetDuration("curation.poll_interval"), 3*time.Second),
			QuietPeriod:      durationOrDefault(viper.GetDuration("curation.quiet_period"), 2*time.Minute),
			StateFile:        firstNonEmpty(viper.GetString("curation.state_file"), "curacao_pendente.json"),
			ThumbnailFile:    firstNonEmpty(viper.GetString("curation.thumbnail_file"), "thumbnail_pendente.json"),
			AuditPath:        strings.TrimSpace(viper.GetString("curation.audit_path")),
		},
		Telegram: TelegramConfig{
			BotToken: strings.TrimSpace(viper.GetString("telegram.bot_token")),
			ChatID:   viper.GetInt64("telegram.chat_id"),
		},
		Publish: PublishConfig{
			YouTubeCredentials: strings.TrimSpace(viper.GetString("publish.youtube_credentials")),
			TikTokEnabled:      viper.GetBool("publish.tiktok.enabled"),
			TikTokClientKey:    strings.TrimSpace(viper.GetString("publish.tiktok.client_key")),
			TikTokClientSecret: strings.TrimSpace(viper.GetString("publish.tiktok.client_secret")),
			TikTokAccessToken:  strings.TrimSpace(viper.GetString("publish.tiktok.access_token")),
			GitHubToken:        strings.TrimSpace(viper.GetString("publish.github.token")),
			GitHubRepository:   strings.TrimSpace(viper.GetString("publish.github.repository")),
		},
		DB: DBConfig{
			Path: pathutil.ExpandHomePath(firstNonEmpty(viper.GetString("db.path"), "autonews.db")),
		},
		Paths: PathsConfig{
			AssetsDir: firstNonEmpty(viper.GetString("paths.assets_dir"), "assets"),
			VideosDir: firstNonEmpty(viper.GetString("paths.videos_dir"), "videos"),
		},
	}
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func intOrDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func durationOrDefault(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
