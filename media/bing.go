package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const bingUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// BingLocator scrapes the Bing image results page. Each result tile
// carries a JSON blob in its "m" attribute whose "murl" field is the
// full-resolution image URL; a regex sweep over the raw page is kept as
// a fallback for markup changes.
type BingLocator struct {
	AssetsDir string
	HTTP      *http.Client

	log *slog.Logger
}

func NewBingLocator(assetsDir string, log *slog.Logger) *BingLocator {
	if log == nil {
		log = slog.Default()
	}
	return &BingLocator{
		AssetsDir: assetsDir,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
}

// Search downloads up to count images matching the keywords and returns
// their local refs. Failures are logged, never fatal: an empty slice
// means the caller should try another source.
func (b *BingLocator) Search(ctx context.Context, keywords []string, count int) []Ref {
	term := strings.Join(limitSlice(keywords, 3), " ")
	if strings.TrimSpace(term) == "" || count <= 0 {
		return nil
	}

	page, err := b.fetchResultsPage(ctx, term)
	if err != nil {
		b.log.Warn("bing search failed", "term", term, "error", err)
		return nil
	}

	urls := ExtractImageURLs(page)
	var refs []Ref
	for _, imageURL := range urls {
		if len(refs) >= count {
			break
		}
		name := fmt.Sprintf("bing_%d.jpg", len(refs))
		path := filepath.Join(b.AssetsDir, name)
		if err := Download(ctx, b.HTTP, imageURL, path); err != nil {
			b.log.Debug("bing image skipped", "url", imageURL, "error", err)
			continue
		}
		refs = append(refs, Ref{Source: path, Kind: KindLocalPhoto})
	}
	b.log.Info("bing images located", "term", term, "count", len(refs))
	return refs
}

func (b *BingLocator) fetchResultsPage(ctx context.Context, term string) (string, error) {
	searchURL := "https://www.bing.com/images/search?q=" + url.QueryEscape(term) + "&first=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", bingUserAgent)

	httpClient := b.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var murlPattern = regexp.MustCompile(`"murl":"(.*?)"`)

// ExtractImageURLs pulls full-resolution image URLs out of a Bing image
// results page, deduplicated in page order.
func ExtractImageURLs(page string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err == nil {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode {
				for _, attr := range n.Attr {
					if attr.Key != "m" {
						continue
					}
					var meta struct {
						MURL string `json:"murl"`
					}
					if json.Unmarshal([]byte(attr.Val), &meta) == nil {
						add(meta.MURL)
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
	}

	for _, m := range murlPattern.FindAllStringSubmatch(page, -1) {
		add(strings.ReplaceAll(m[1], `\/`, "/"))
	}
	return out
}

func limitSlice(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
