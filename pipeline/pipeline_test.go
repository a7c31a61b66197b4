package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sgt-cod/youtube-automation-news/config"
	"github.com/Sgt-cod/youtube-automation-news/curation"
	"github.com/Sgt-cod/youtube-automation-news/llm"
	"github.com/Sgt-cod/youtube-automation-news/media"
	"github.com/Sgt-cod/youtube-automation-news/news"
	"github.com/Sgt-cod/youtube-automation-news/publish"
	"github.com/Sgt-cod/youtube-automation-news/script"
	"github.com/Sgt-cod/youtube-automation-news/video"
)

const testNarration = "Primeira frase da narração com conteúdo político relevante. Segunda frase igualmente longa sobre o congresso nacional. Terceira frase encerrando o assunto do dia com um resumo."

type fakeLLM struct{}

func (fakeLLM) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	switch {
	case strings.Contains(prompt, "título ESPECÍFICO"):
		return llm.Result{Text: `{"titulo": "STF julga caso emblemático", "keywords": ["court", "justice", "brazil"]}`}, nil
	case strings.Contains(prompt, "palavras-chave em INGLÊS"):
		return llm.Result{Text: "politics, congress, brazil"}, nil
	default:
		return llm.Result{Text: testNarration}, nil
	}
}

type fakeNews struct{ items []news.Item }

func (f *fakeNews) FetchAll(ctx context.Context) []news.Item { return f.items }

type fakeReviewer struct {
	started   []string
	lastItems []curation.Candidate
	errs      []error
	thumb     string
}

func (f *fakeReviewer) StartReview(ctx context.Context, kind string, items []curation.Candidate) error {
	f.started = append(f.started, kind)
	f.lastItems = items
	return nil
}

func (f *fakeReviewer) AwaitResolution(ctx context.Context, timeout time.Duration) ([]curation.Candidate, error) {
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err != nil {
		return nil, err
	}
	if len(f.lastItems) > 0 && f.lastItems[0].Kind == curation.KindTopic {
		return f.lastItems[:1], nil
	}
	return f.lastItems, nil
}

func (f *fakeReviewer) RequestThumbnail(ctx context.Context, title string, timeout time.Duration) (string, error) {
	return f.thumb, nil
}

type fakeSynth struct{}

func (fakeSynth) Synthesize(ctx context.Context, text, outPath string) error {
	return os.WriteFile(outPath, []byte("mp3"), 0o600)
}

type fakeRenderer struct {
	clips   []video.Clip
	profile video.Profile
}

func (f *fakeRenderer) Compose(ctx context.Context, clips []video.Clip, audioPath, outPath string, p video.Profile) error {
	f.clips = clips
	f.profile = p
	return os.WriteFile(outPath, []byte("mp4"), 0o600)
}

func (f *fakeRenderer) Thumbnail(ctx context.Context, videoPath, outPath string) error {
	return os.WriteFile(outPath, []byte("jpg"), 0o600)
}

func (f *fakeRenderer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return 30, nil
}

type fakeUploader struct {
	id    string
	calls int
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, v publish.Video) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

func testPipeline(t *testing.T, cfg *config.Config) (*Pipeline, *fakeRenderer) {
	t.Helper()
	if cfg.Paths.AssetsDir == "" {
		cfg.Paths.AssetsDir = t.TempDir()
	}
	if cfg.Paths.VideosDir == "" {
		cfg.Paths.VideosDir = t.TempDir()
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	renderer := &fakeRenderer{}
	p := New(cfg, log)
	p.Gen = script.NewGenerator(fakeLLM{}, "test-model", log)
	p.Voice = fakeSynth{}
	p.Renderer = renderer

	localImage := filepath.Join(cfg.Paths.AssetsDir, "banco.jpg")
	if err := os.WriteFile(localImage, []byte("jpg"), 0o600); err != nil {
		t.Fatalf("seed image: %v", err)
	}
	p.Locate = func(ctx context.Context, keywords []string, preferVideo bool, count int) []media.Ref {
		return []media.Ref{{Source: localImage, Kind: media.KindLocalPhoto}}
	}
	return p, renderer
}

func newsConfig() *config.Config {
	return &config.Config{
		Channel: config.ChannelConfig{Kind: "noticias", RSSFeeds: []string{"http://feed"}, FixedKeywords: []string{"brasil"}},
		Video:   config.VideoConfig{Kind: "short", MediaSource: "bing"},
		Curation: config.CurationConfig{
			Enabled: true,
			Timeout: time.Second,
		},
	}
}

func TestRunNewsWithCuration(t *testing.T) {
	cfg := newsConfig()
	p, renderer := testPipeline(t, cfg)
	p.News = &fakeNews{items: []news.Item{
		{Title: "Congresso vota projeto", Summary: "resumo da pauta", Link: "http://a"},
		{Title: "STF decide recurso", Summary: "resumo do caso", Link: "http://b"},
	}}
	reviewer := &fakeReviewer{}
	p.Reviewer = reviewer
	yt := &fakeUploader{id: "yt-123"}
	tk := &fakeUploader{id: "tt-456"}
	p.YouTube = yt
	p.TikTok = tk

	var notified string
	p.Notify = func(ctx context.Context, text string) { notified = text }

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Title != "Congresso vota projeto" {
		t.Fatalf("title = %q", result.Title)
	}
	if result.YouTubeID != "yt-123" || result.TikTokID != "tt-456" {
		t.Fatalf("publish ids = %+v", result)
	}
	if len(reviewer.started) != 2 || reviewer.started[0] != curation.KindTopic || reviewer.started[1] != curation.KindMedia {
		t.Fatalf("reviews started = %v", reviewer.started)
	}
	if renderer.profile != video.ShortProfile {
		t.Fatalf("profile = %+v, want short", renderer.profile)
	}
	if len(renderer.clips) == 0 {
		t.Fatalf("no clips rendered")
	}
	var total float64
	for _, c := range renderer.clips {
		total += c.Duration
	}
	if total < 29.9 || total > 30.1 {
		t.Fatalf("clip durations sum to %v, want ~30", total)
	}
	if !strings.Contains(notified, "Vídeo publicado") || !strings.Contains(notified, "yt-123") {
		t.Fatalf("notification = %q", notified)
	}
	if _, err := os.Stat(result.VideoPath); err != nil {
		t.Fatalf("video file missing: %v", err)
	}
}

func TestRunAbortsOnCancelledReview(t *testing.T) {
	cfg := newsConfig()
	p, _ := testPipeline(t, cfg)
	p.News = &fakeNews{items: []news.Item{{Title: "Manchete", Summary: "resumo"}}}
	reviewer := &fakeReviewer{errs: []error{nil, curation.ErrCancelled}}
	p.Reviewer = reviewer
	yt := &fakeUploader{id: "yt-123"}
	p.YouTube = yt

	_, err := p.Run(context.Background())
	if !errors.Is(err, curation.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if yt.calls != 0 {
		t.Fatalf("upload ran after cancellation")
	}
}

func TestRunThemesChannelWithoutCuration(t *testing.T) {
	cfg := &config.Config{
		Channel: config.ChannelConfig{Kind: "temas", Themes: []string{"política brasileira"}},
		Video:   config.VideoConfig{Kind: "long", LongMinutes: 5, MediaSource: "pexels"},
	}
	p, renderer := testPipeline(t, cfg)
	yt := &fakeUploader{id: "yt-789"}
	tk := &fakeUploader{id: "tt-000"}
	p.YouTube = yt
	p.TikTok = tk

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Title != "STF julga caso emblemático" {
		t.Fatalf("title = %q", result.Title)
	}
	if renderer.profile != video.LongProfile {
		t.Fatalf("profile = %+v, want long", renderer.profile)
	}
	if tk.calls != 0 {
		t.Fatalf("tiktok must only receive shorts")
	}
	if yt.calls != 1 {
		t.Fatalf("youtube calls = %d, want 1", yt.calls)
	}
}

func TestRunToleratesUploadFailure(t *testing.T) {
	cfg := newsConfig()
	cfg.Curation.Enabled = false
	p, _ := testPipeline(t, cfg)
	p.News = &fakeNews{items: []news.Item{{Title: "Manchete única", Summary: "resumo"}}}
	p.YouTube = &fakeUploader{err: fmt.Errorf("quota exceeded")}
	tk := &fakeUploader{id: "tt-1"}
	p.TikTok = tk

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.YouTubeID != "" {
		t.Fatalf("youtube id = %q, want empty on failure", result.YouTubeID)
	}
	if result.TikTokID != "tt-1" {
		t.Fatalf("tiktok id = %q, surviving platforms must still publish", result.TikTokID)
	}
}

func TestBuildClipsDonatesEmptySlots(t *testing.T) {
	cfg := newsConfig()
	p, _ := testPipeline(t, cfg)
	img := filepath.Join(cfg.Paths.AssetsDir, "banco.jpg")

	candidates := []curation.Candidate{
		{Kind: curation.KindMedia, Media: media.Ref{Source: img, Kind: media.KindLocalPhoto}},
		{Kind: curation.KindMedia},
		{Kind: curation.KindMedia, Media: media.Ref{Source: img, Kind: media.KindLocalPhoto}},
	}
	segments := []script.Segment{
		{Duration: 5}, {Duration: 3}, {Duration: 7},
	}
	clips, err := p.buildClips(context.Background(), candidates, segments)
	if err != nil {
		t.Fatalf("build clips: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("clips = %d, want 2", len(clips))
	}
	if clips[0].Duration != 8 {
		t.Fatalf("first clip duration = %v, want 8 (5+3)", clips[0].Duration)
	}
}

func TestMergeKeywords(t *testing.T) {
	got := mergeKeywords([]string{"politics", "Brazil", ""}, []string{"brazil", "congress"})
	want := []string{"politics", "Brazil", "congress"}
	if len(got) != len(want) {
		t.Fatalf("merged = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("merged = %v, want %v", got, want)
		}
	}
}
