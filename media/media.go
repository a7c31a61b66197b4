package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Kind tags how a Ref must be handled by the composer: local files are
// used directly, remote photos and videos are downloaded first.
type Kind string

const (
	KindLocalPhoto  Kind = "foto_local"
	KindRemotePhoto Kind = "foto"
	KindRemoteVideo Kind = "video"
)

// Ref points at one piece of visual media, either a local path or a URL.
type Ref struct {
	Source string `json:"source"`
	Kind   Kind   `json:"kind"`
}

func (r Ref) IsZero() bool { return strings.TrimSpace(r.Source) == "" }

// Download fetches a remote media URL into path.
func Download(ctx context.Context, client *http.Client, url, path string) error {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
