package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sgt-cod/youtube-automation-news/config"
	"github.com/Sgt-cod/youtube-automation-news/curation"
	"github.com/Sgt-cod/youtube-automation-news/db"
	"github.com/Sgt-cod/youtube-automation-news/internal/pathutil"
	"github.com/Sgt-cod/youtube-automation-news/llm"
	"github.com/Sgt-cod/youtube-automation-news/media"
	"github.com/Sgt-cod/youtube-automation-news/news"
	"github.com/Sgt-cod/youtube-automation-news/pipeline"
	"github.com/Sgt-cod/youtube-automation-news/providers/openai"
	"github.com/Sgt-cod/youtube-automation-news/publish"
	"github.com/Sgt-cod/youtube-automation-news/script"
	"github.com/Sgt-cod/youtube-automation-news/telegram"
	"github.com/Sgt-cod/youtube-automation-news/tts"
	"github.com/Sgt-cod/youtube-automation-news/video"
)

// buildPipeline assembles every component from the config. The cleanup
// func flushes the audit sink.
func buildPipeline(ctx context.Context, cfg *config.Config, log *slog.Logger) (*pipeline.Pipeline, func(), error) {
	cleanup := func() {}

	for _, dir := range []string{cfg.Paths.AssetsDir, cfg.Paths.VideosDir} {
		if err := pathutil.EnsureDir(dir, 0o755); err != nil {
			return nil, cleanup, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	p := pipeline.New(cfg, log)
	p.News = news.NewFetcher(cfg.Channel.RSSFeeds, log)

	var client llm.Client = openai.New(cfg.LLM.Endpoint, cfg.LLM.APIKey)
	gen := script.NewGenerator(client, cfg.LLM.Model, log)
	if strings.TrimSpace(cfg.Channel.Persona) != "" {
		persona, err := script.LoadPersona(cfg.Channel.PersonaDir, cfg.Channel.Persona)
		if err != nil {
			log.Warn("persona not loaded", "name", cfg.Channel.Persona, "error", err)
		} else {
			gen.Persona = &persona
		}
	}
	p.Gen = gen

	primary := tts.NewMicrosoftEngine(cfg.TTS.Region, cfg.TTS.SubscriptionKey, cfg.TTS.Voice)
	fallback := tts.NewTranslateEngine("pt")
	p.Voice = tts.NewSynthesizer(primary, fallback, log)

	p.Locate = buildLocator(cfg, log)

	composer := video.NewComposer(cfg.Paths.AssetsDir, log)
	if strings.TrimSpace(cfg.Video.FFmpegBin) != "" {
		composer.FFmpeg = cfg.Video.FFmpegBin
	}
	p.Renderer = composer

	if strings.TrimSpace(cfg.DB.Path) != "" {
		gdb, err := db.Open(ctx, db.Config{
			DSN:    cfg.DB.Path,
			SQLite: db.SQLiteConfig{WAL: true, BusyTimeoutMs: 5000},
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("open history db: %w", err)
		}
		if err := db.AutoMigrate(gdb); err != nil {
			return nil, cleanup, fmt.Errorf("migrate history db: %w", err)
		}
		p.History = db.NewHistory(gdb)
	}

	if strings.TrimSpace(cfg.Telegram.BotToken) != "" {
		bot := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)
		p.Notify = func(ctx context.Context, text string) {
			if _, err := bot.SendMessage(ctx, text, nil); err != nil {
				log.Warn("notification failed", "error", err)
			}
		}
		if cfg.Curation.Enabled {
			reviewer, done, err := buildReviewer(cfg, bot, p.Locate, log)
			if err != nil {
				return nil, cleanup, err
			}
			p.Reviewer = reviewer
			cleanup = done
		}
	}

	if strings.TrimSpace(cfg.Publish.YouTubeCredentials) != "" {
		yt, err := publish.NewYouTubeUploader(ctx, cfg.Publish.YouTubeCredentials, log)
		if err != nil {
			return nil, cleanup, err
		}
		p.YouTube = yt
	}
	if cfg.Publish.TikTokEnabled {
		p.TikTok = publish.NewTikTokUploader(cfg.Publish.TikTokAccessToken, log)
	}
	if strings.TrimSpace(cfg.Publish.GitHubToken) != "" && strings.TrimSpace(cfg.Publish.GitHubRepository) != "" {
		mirror, err := publish.NewReleaseMirror(cfg.Publish.GitHubToken, cfg.Publish.GitHubRepository, log)
		if err != nil {
			return nil, cleanup, err
		}
		p.Mirror = mirror
	}

	return p, cleanup, nil
}

func buildReviewer(cfg *config.Config, bot *telegram.Client, locate func(context.Context, []string, bool, int) []media.Ref, log *slog.Logger) (*curation.Coordinator, func(), error) {
	store := curation.NewFileStore(cfg.Paths.AssetsDir, cfg.Curation.StateFile, cfg.Curation.ThumbnailFile)
	coordinator := curation.NewCoordinator(store, store, bot, log)
	coordinator.AssetsDir = cfg.Paths.AssetsDir
	if cfg.Curation.PollInterval > 0 {
		coordinator.PollInterval = cfg.Curation.PollInterval
	}
	if cfg.Curation.QuietPeriod > 0 {
		coordinator.QuietPeriod = cfg.Curation.QuietPeriod
	}
	coordinator.SuggestAlternative = func(ctx context.Context, cand curation.Candidate) (media.Ref, bool) {
		if alt, ok := media.AlternativeInFolder(cand.Media); ok {
			return alt, true
		}
		if locate != nil {
			if refs := locate(ctx, cand.Keywords, false, 1); len(refs) > 0 {
				return refs[0], true
			}
		}
		return media.Ref{}, false
	}

	cleanup := func() {}
	if strings.TrimSpace(cfg.Curation.AuditPath) != "" {
		sink, err := curation.NewJSONLAuditSink(cfg.Curation.AuditPath, 0)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open audit log: %w", err)
		}
		coordinator.Audit = sink
		cleanup = func() { _ = sink.Close() }
	}
	return coordinator, cleanup, nil
}

func buildLocator(cfg *config.Config, log *slog.Logger) func(context.Context, []string, bool, int) []media.Ref {
	if strings.TrimSpace(cfg.Media.BankDir) != "" {
		bank := cfg.Media.BankDir
		return func(ctx context.Context, keywords []string, preferVideo bool, count int) []media.Ref {
			return bankRefs(bank, keywords, count)
		}
	}
	switch cfg.Video.MediaSource {
	case "pexels":
		locator := media.NewPexelsLocator(cfg.Media.PexelsAPIKey, cfg.Video.Kind == "short", log)
		return func(ctx context.Context, keywords []string, preferVideo bool, count int) []media.Ref {
			return locator.Search(ctx, keywords, preferVideo, count)
		}
	default:
		locator := media.NewBingLocator(cfg.Paths.AssetsDir, log)
		return func(ctx context.Context, keywords []string, preferVideo bool, count int) []media.Ref {
			return locator.Search(ctx, keywords, count)
		}
	}
}

// bankRefs serves media from a local folder tree, matching folder names
// against the segment keywords.
func bankRefs(bankDir string, keywords []string, count int) []media.Ref {
	entries, err := os.ReadDir(bankDir)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	pick := func(dir string) []media.Ref {
		files, err := os.ReadDir(filepath.Join(bankDir, dir))
		if err != nil {
			return nil
		}
		var out []media.Ref
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(f.Name())) {
			case ".jpg", ".jpeg", ".png":
				out = append(out, media.Ref{
					Source: filepath.Join(bankDir, dir, f.Name()),
					Kind:   media.KindLocalPhoto,
				})
			}
			if len(out) == count {
				break
			}
		}
		return out
	}
	for _, kw := range keywords {
		for _, dir := range dirs {
			if strings.Contains(strings.ToLower(dir), strings.ToLower(kw)) {
				if refs := pick(dir); len(refs) > 0 {
					return refs
				}
			}
		}
	}
	// No keyword match: fall back to the first folder with content.
	for _, dir := range dirs {
		if refs := pick(dir); len(refs) > 0 {
			return refs
		}
	}
	return nil
}
