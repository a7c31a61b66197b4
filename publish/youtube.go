package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/Sgt-cod/youtube-automation-news/internal/strutil"
)

// youtubeCategoryEducation is the category every upload is filed under.
const youtubeCategoryEducation = "27"

const maxYouTubeTitleRunes = 60

// Video carries everything the uploaders need about a finished cut.
type Video struct {
	Path          string
	Title         string
	Description   string
	Tags          []string
	Short         bool
	ThumbnailPath string
}

// YouTubeUploader publishes finished videos through the Data API v3.
type YouTubeUploader struct {
	service *youtube.Service
	log     *slog.Logger
}

// NewYouTubeUploader builds a client from an authorized-user
// credentials file (client id/secret plus refresh token).
func NewYouTubeUploader(ctx context.Context, credentialsPath string, log *slog.Logger) (*YouTubeUploader, error) {
	if log == nil {
		log = slog.Default()
	}
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read youtube credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse youtube credentials: %w", err)
	}
	svc, err := youtube.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("build youtube service: %w", err)
	}
	return &YouTubeUploader{service: svc, log: log}, nil
}

// Upload sends the video and returns its YouTube ID. Shorts get the
// #shorts suffix the platform keys vertical distribution on.
func (u *YouTubeUploader) Upload(ctx context.Context, v Video) (string, error) {
	title := YouTubeTitle(v.Title, v.Short)

	upload := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: v.Description,
			Tags:        v.Tags,
			CategoryId:  youtubeCategoryEducation,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "public",
			SelfDeclaredMadeForKids: false,
		},
	}

	f, err := os.Open(v.Path)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	call := u.service.Videos.Insert([]string{"snippet", "status"}, upload)
	resp, err := call.Context(ctx).Media(f).Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}
	u.log.Info("youtube upload done", "video_id", resp.Id, "title", title)

	if strings.TrimSpace(v.ThumbnailPath) != "" {
		if err := u.setThumbnail(ctx, resp.Id, v.ThumbnailPath); err != nil {
			u.log.Warn("thumbnail upload failed", "video_id", resp.Id, "error", err)
		}
	}
	return resp.Id, nil
}

func (u *YouTubeUploader) setThumbnail(ctx context.Context, videoID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open thumbnail: %w", err)
	}
	defer f.Close()
	_, err = u.service.Thumbnails.Set(videoID).Context(ctx).Media(f).Do()
	return err
}

// YouTubeTitle clamps the title to the platform limit and tags shorts.
func YouTubeTitle(title string, short bool) string {
	title = strings.TrimSpace(title)
	if short {
		const suffix = " #shorts"
		budget := maxYouTubeTitleRunes - len([]rune(suffix))
		return strutil.Ellipsize(title, budget) + suffix
	}
	return strutil.Ellipsize(title, maxYouTubeTitleRunes)
}

// TokenFromFile loads a cached oauth2 token, used by the interactive
// auth bootstrap command.
func TokenFromFile(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return &tok, nil
}
