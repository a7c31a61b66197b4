package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// ReleaseMirror stores finished videos as GitHub release assets, which
// doubles as an off-site backup with stable download URLs.
type ReleaseMirror struct {
	client *github.Client
	owner  string
	repo   string
	log    *slog.Logger
}

func NewReleaseMirror(token, repository string, log *slog.Logger) (*ReleaseMirror, error) {
	if log == nil {
		log = slog.Default()
	}
	owner, repo, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid github repository %q, want owner/repo", repository)
	}
	return &ReleaseMirror{
		client: github.NewClient(nil).WithAuthToken(token),
		owner:  owner,
		repo:   repo,
		log:    log,
	}, nil
}

// Mirror creates a release tagged with the publication date and
// attaches the video file. Returns the tag name.
func (m *ReleaseMirror) Mirror(ctx context.Context, v Video) (string, error) {
	tag := fmt.Sprintf("video-%s", time.Now().Format("20060102-150405"))
	release, _, err := m.client.Repositories.CreateRelease(ctx, m.owner, m.repo, &github.RepositoryRelease{
		TagName: github.String(tag),
		Name:    github.String(v.Title),
		Body:    github.String(v.Description),
	})
	if err != nil {
		return "", fmt.Errorf("create release: %w", err)
	}

	f, err := os.Open(v.Path)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	_, _, err = m.client.Repositories.UploadReleaseAsset(ctx, m.owner, m.repo, release.GetID(), &github.UploadOptions{
		Name: "video.mp4",
	}, f)
	if err != nil {
		return "", fmt.Errorf("upload release asset: %w", err)
	}
	m.log.Info("release mirror done", "tag", tag)
	return tag, nil
}

// Remove deletes a mirrored release and its tag, used when a
// publication is retracted.
func (m *ReleaseMirror) Remove(ctx context.Context, tag string) error {
	release, _, err := m.client.Repositories.GetReleaseByTag(ctx, m.owner, m.repo, tag)
	if err != nil {
		return fmt.Errorf("find release %s: %w", tag, err)
	}
	if _, err := m.client.Repositories.DeleteRelease(ctx, m.owner, m.repo, release.GetID()); err != nil {
		return fmt.Errorf("delete release %s: %w", tag, err)
	}
	ref := "tags/" + tag
	if _, err := m.client.Git.DeleteRef(ctx, m.owner, m.repo, ref); err != nil {
		return fmt.Errorf("delete tag %s: %w", tag, err)
	}
	return nil
}
