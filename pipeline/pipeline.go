package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sgt-cod/youtube-automation-news/config"
	"github.com/Sgt-cod/youtube-automation-news/curation"
	"github.com/Sgt-cod/youtube-automation-news/db"
	"github.com/Sgt-cod/youtube-automation-news/db/models"
	"github.com/Sgt-cod/youtube-automation-news/internal/strutil"
	"github.com/Sgt-cod/youtube-automation-news/media"
	"github.com/Sgt-cod/youtube-automation-news/news"
	"github.com/Sgt-cod/youtube-automation-news/publish"
	"github.com/Sgt-cod/youtube-automation-news/script"
	"github.com/Sgt-cod/youtube-automation-news/video"
)

// TopicSource produces headline candidates.
type TopicSource interface {
	FetchAll(ctx context.Context) []news.Item
}

// Reviewer is the human curation surface. A nil Reviewer runs the
// pipeline fully automatic.
type Reviewer interface {
	StartReview(ctx context.Context, kind string, items []curation.Candidate) error
	AwaitResolution(ctx context.Context, timeout time.Duration) ([]curation.Candidate, error)
	RequestThumbnail(ctx context.Context, title string, timeout time.Duration) (string, error)
}

// Synthesizer turns narration text into an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// Renderer is the video composition backend.
type Renderer interface {
	Compose(ctx context.Context, clips []video.Clip, audioPath, outPath string, p video.Profile) error
	Thumbnail(ctx context.Context, videoPath, outPath string) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Uploader publishes one finished video to a platform.
type Uploader interface {
	Upload(ctx context.Context, v publish.Video) (string, error)
}

// Mirrorer archives the finished video and returns an archive tag.
type Mirrorer interface {
	Mirror(ctx context.Context, v publish.Video) (string, error)
}

// Pipeline runs one end-to-end production: topic, script, voice, media,
// curation, composition and publication.
type Pipeline struct {
	Cfg *config.Config

	News     TopicSource
	Gen      *script.Generator
	Voice    Synthesizer
	Locate   func(ctx context.Context, keywords []string, preferVideo bool, count int) []media.Ref
	Reviewer Reviewer
	Renderer Renderer

	YouTube Uploader
	TikTok  Uploader
	Mirror  Mirrorer
	History *db.History

	Notify func(ctx context.Context, text string)
	HTTP   *http.Client

	log *slog.Logger
}

func New(cfg *config.Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		Cfg:  cfg,
		HTTP: &http.Client{Timeout: 60 * time.Second},
		log:  log,
	}
}

// Result summarizes one completed run.
type Result struct {
	Title     string
	VideoPath string
	YouTubeID string
	TikTokID  string
	MirrorTag string
	Duration  float64
}

// Run produces and publishes one video. A reviewer cancellation aborts
// the run with curation.ErrCancelled.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	title, keywords, item, err := p.chooseTopic(ctx)
	if err != nil {
		return nil, err
	}
	p.log.Info("topic selected", "title", title)

	narration, err := p.Gen.Narration(ctx, p.Cfg.Video.Kind, title, p.Cfg.Video.LongMinutes, item)
	if err != nil {
		return nil, fmt.Errorf("generate narration: %w", err)
	}
	narration = script.CleanNarration(narration)

	audioPath := filepath.Join(p.Cfg.Paths.AssetsDir, "voz.mp3")
	if err := p.Voice.Synthesize(ctx, narration, audioPath); err != nil {
		return nil, fmt.Errorf("synthesize narration: %w", err)
	}
	audioDur, err := p.Renderer.ProbeDuration(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	segments := p.Gen.Segmentize(ctx, narration, audioDur)
	if len(segments) == 0 {
		return nil, fmt.Errorf("narration produced no segments")
	}

	candidates := p.collectMedia(ctx, segments, keywords)
	reviewed, err := p.reviewMedia(ctx, candidates)
	if err != nil {
		return nil, err
	}

	clips, err := p.buildClips(ctx, reviewed, segments)
	if err != nil {
		return nil, err
	}

	outPath := filepath.Join(p.Cfg.Paths.VideosDir, fmt.Sprintf("video_%s.mp4", time.Now().Format("20060102_150405")))
	profile := video.LongProfile
	if p.Cfg.Video.Kind == "short" {
		profile = video.ShortProfile
	}
	if err := p.Renderer.Compose(ctx, clips, audioPath, outPath, profile); err != nil {
		return nil, fmt.Errorf("compose video: %w", err)
	}
	p.log.Info("video composed", "path", outPath, "audio_seconds", audioDur)

	thumbPath := p.thumbnail(ctx, title, outPath)

	result := &Result{Title: title, VideoPath: outPath, Duration: audioDur}
	p.publishAll(ctx, result, publish.Video{
		Path:          outPath,
		Title:         title,
		Description:   buildDescription(title, narration),
		Tags:          mergeKeywords(keywords, p.Cfg.Channel.FixedKeywords),
		Short:         p.Cfg.Video.Kind == "short",
		ThumbnailPath: thumbPath,
	})

	if p.Notify != nil {
		p.Notify(ctx, runSummary(result))
	}
	return result, nil
}

// chooseTopic resolves the video subject: a reviewed headline, a random
// headline, or a model-sharpened theme.
func (p *Pipeline) chooseTopic(ctx context.Context) (string, []string, *news.Item, error) {
	if p.Cfg.Channel.Kind == "temas" {
		themes := p.Cfg.Channel.Themes
		if len(themes) == 0 {
			return "", nil, nil, fmt.Errorf("channel.kind is temas but no themes configured")
		}
		theme := themes[rand.Intn(len(themes))]
		info := p.Gen.SpecificTitle(ctx, theme)
		return info.Title, info.Keywords, nil, nil
	}

	items := p.News.FetchAll(ctx)
	items = p.dropPublished(ctx, items)
	if len(items) == 0 {
		return "", nil, nil, fmt.Errorf("no fresh headlines available")
	}

	if p.Reviewer == nil {
		item, _ := news.PickOne(items)
		return item.Title, nil, &item, nil
	}

	limit := len(items)
	if limit > 3 {
		limit = 3
	}
	candidates := make([]curation.Candidate, 0, limit)
	for _, item := range items[:limit] {
		candidates = append(candidates, curation.Candidate{
			Kind:    curation.KindTopic,
			Title:   item.Title,
			Summary: strutil.Ellipsize(item.Summary, 200),
			Text:    item.Link,
		})
	}
	if err := p.Reviewer.StartReview(ctx, curation.KindTopic, candidates); err != nil {
		return "", nil, nil, err
	}
	chosen, err := p.Reviewer.AwaitResolution(ctx, p.Cfg.Curation.Timeout)
	if errors.Is(err, curation.ErrTimedOut) && len(chosen) > 0 {
		err = nil
		chosen = chosen[:1]
	}
	if err != nil {
		return "", nil, nil, err
	}
	if len(chosen) == 0 {
		return "", nil, nil, fmt.Errorf("topic review resolved with no selection")
	}
	sel := chosen[0]
	item := &news.Item{Title: sel.Title, Summary: sel.Summary, Link: sel.Text}
	return sel.Title, nil, item, nil
}

func (p *Pipeline) dropPublished(ctx context.Context, items []news.Item) []news.Item {
	if p.History == nil {
		return items
	}
	fresh := make([]news.Item, 0, len(items))
	for _, item := range items {
		seen, err := p.History.TitleExists(ctx, item.Title)
		if err != nil {
			p.log.Warn("history lookup failed", "error", err)
			return items
		}
		if !seen {
			fresh = append(fresh, item)
		}
	}
	return fresh
}

// collectMedia finds one media candidate per narration segment.
func (p *Pipeline) collectMedia(ctx context.Context, segments []script.Segment, topicKeywords []string) []curation.Candidate {
	preferVideo := p.Cfg.Video.MediaSource == "pexels"
	candidates := make([]curation.Candidate, 0, len(segments))
	for i, seg := range segments {
		keywords := seg.Keywords
		if len(keywords) == 0 {
			keywords = p.Gen.ExtractKeywords(ctx, seg.Text)
		}
		keywords = mergeKeywords(keywords, topicKeywords)

		var ref media.Ref
		if p.Locate != nil {
			if refs := p.Locate(ctx, keywords, preferVideo, 1); len(refs) > 0 {
				ref = refs[0]
			}
		}
		if ref.IsZero() {
			p.log.Warn("no media found for segment", "index", i, "keywords", keywords)
		}
		candidates = append(candidates, curation.Candidate{
			Kind:     curation.KindMedia,
			Media:    ref,
			Text:     seg.Text,
			Keywords: keywords,
		})
	}
	return candidates
}

// reviewMedia runs the human pass when curation is on. A timeout keeps
// whatever was reviewed; a cancellation aborts the run.
func (p *Pipeline) reviewMedia(ctx context.Context, candidates []curation.Candidate) ([]curation.Candidate, error) {
	if p.Reviewer == nil {
		return candidates, nil
	}
	if err := p.Reviewer.StartReview(ctx, curation.KindMedia, candidates); err != nil {
		return nil, err
	}
	reviewed, err := p.Reviewer.AwaitResolution(ctx, p.Cfg.Curation.Timeout)
	if errors.Is(err, curation.ErrTimedOut) {
		p.log.Warn("media review timed out, proceeding with presented items")
		return reviewed, nil
	}
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// buildClips materializes candidates into local files for the renderer.
// Candidates with no usable media donate their slot to the previous
// clip so the narration timing is preserved.
func (p *Pipeline) buildClips(ctx context.Context, candidates []curation.Candidate, segments []script.Segment) ([]video.Clip, error) {
	if len(candidates) != len(segments) {
		return nil, fmt.Errorf("candidates (%d) do not match segments (%d)", len(candidates), len(segments))
	}
	clips := make([]video.Clip, 0, len(candidates))
	for i, cand := range candidates {
		dur := segments[i].Duration
		ref := cand.Media
		if ref.IsZero() {
			if len(clips) > 0 {
				clips[len(clips)-1].Duration += dur
				continue
			}
			return nil, fmt.Errorf("first segment has no media")
		}

		path := ref.Source
		if ref.Kind != media.KindLocalPhoto && !strings.HasPrefix(path, p.Cfg.Paths.AssetsDir) {
			ext := ".jpg"
			if ref.Kind == media.KindRemoteVideo {
				ext = ".mp4"
			}
			path = filepath.Join(p.Cfg.Paths.AssetsDir, fmt.Sprintf("midia_%d%s", i+1, ext))
			if err := media.Download(ctx, p.HTTP, ref.Source, path); err != nil {
				p.log.Warn("media download failed, reusing previous clip", "index", i, "error", err)
				if len(clips) > 0 {
					clips[len(clips)-1].Duration += dur
					continue
				}
				return nil, fmt.Errorf("download first segment media: %w", err)
			}
		}
		clips = append(clips, video.Clip{
			MediaPath: path,
			IsVideo:   ref.Kind == media.KindRemoteVideo,
			Duration:  dur,
		})
	}
	if len(clips) == 0 {
		return nil, fmt.Errorf("no usable media for any segment")
	}
	return clips, nil
}

// thumbnail prefers a reviewer upload and falls back to a frame grab.
func (p *Pipeline) thumbnail(ctx context.Context, title, videoPath string) string {
	if p.Reviewer != nil {
		custom, err := p.Reviewer.RequestThumbnail(ctx, title, p.Cfg.Curation.ThumbnailTimeout)
		if err != nil {
			p.log.Warn("thumbnail request failed", "error", err)
		} else if custom != "" {
			return custom
		}
	}
	auto := filepath.Join(p.Cfg.Paths.AssetsDir, "thumbnail.jpg")
	if err := p.Renderer.Thumbnail(ctx, videoPath, auto); err != nil {
		p.log.Warn("automatic thumbnail failed", "error", err)
		return ""
	}
	return auto
}

// publishAll runs every configured destination, tolerating individual
// failures so one broken platform does not waste the render.
func (p *Pipeline) publishAll(ctx context.Context, result *Result, v publish.Video) {
	if p.YouTube != nil {
		id, err := p.YouTube.Upload(ctx, v)
		if err != nil {
			p.log.Error("youtube publish failed", "error", err)
		} else {
			result.YouTubeID = id
		}
	}
	if p.TikTok != nil && v.Short {
		id, err := p.TikTok.Upload(ctx, v)
		if err != nil {
			p.log.Error("tiktok publish failed", "error", err)
		} else {
			result.TikTokID = id
		}
	}
	if p.Mirror != nil {
		tag, err := p.Mirror.Mirror(ctx, v)
		if err != nil {
			p.log.Error("release mirror failed", "error", err)
		} else {
			result.MirrorTag = tag
		}
	}

	if p.History != nil {
		err := p.History.Record(ctx, models.PublishedVideo{
			Title:      result.Title,
			Kind:       p.Cfg.Video.Kind,
			LocalPath:  result.VideoPath,
			YouTubeID:  result.YouTubeID,
			TikTokID:   result.TikTokID,
			ReleaseTag: result.MirrorTag,
			Duration:   result.Duration,
		})
		if err != nil {
			p.log.Error("history record failed", "error", err)
		}
	}
}

func buildDescription(title, narration string) string {
	return fmt.Sprintf("%s\n\n%s\n\n#noticias #brasil #politica", title, strutil.Ellipsize(narration, 300))
}

func mergeKeywords(primary, extra []string) []string {
	seen := make(map[string]bool, len(primary)+len(extra))
	out := make([]string, 0, len(primary)+len(extra))
	for _, kw := range append(append([]string{}, primary...), extra...) {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		out = append(out, kw)
	}
	return out
}

func runSummary(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 <b>Vídeo publicado</b>\n%s\n", r.Title)
	if r.YouTubeID != "" {
		fmt.Fprintf(&b, "▶️ https://youtu.be/%s\n", r.YouTubeID)
	}
	if r.TikTokID != "" {
		fmt.Fprintf(&b, "🎵 TikTok: %s\n", r.TikTokID)
	}
	if r.MirrorTag != "" {
		fmt.Fprintf(&b, "📦 Backup: %s\n", r.MirrorTag)
	}
	fmt.Fprintf(&b, "⏱️ %.0fs", r.Duration)
	return b.String()
}
