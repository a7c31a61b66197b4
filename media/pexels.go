package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PexelsLocator queries the Pexels stock-media API for videos and
// photos, preferring orientation matching the target video format.
type PexelsLocator struct {
	APIKey   string
	Portrait bool
	HTTP     *http.Client

	log *slog.Logger
}

func NewPexelsLocator(apiKey string, portrait bool, log *slog.Logger) *PexelsLocator {
	if log == nil {
		log = slog.Default()
	}
	return &PexelsLocator{
		APIKey:   strings.TrimSpace(apiKey),
		Portrait: portrait,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

type pexelsVideoResponse struct {
	Videos []struct {
		VideoFiles []struct {
			Link   string `json:"link"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"video_files"`
	} `json:"videos"`
}

type pexelsPhotoResponse struct {
	Photos []struct {
		Src struct {
			Large2x string `json:"large2x"`
		} `json:"src"`
	} `json:"photos"`
}

// Search returns up to count refs. preferVideo controls whether stock
// footage is tried before falling back to photos.
func (p *PexelsLocator) Search(ctx context.Context, keywords []string, preferVideo bool, count int) []Ref {
	term := strings.Join(limitSlice(keywords, 3), " ")
	if strings.TrimSpace(term) == "" || count <= 0 {
		return nil
	}

	var refs []Ref
	if preferVideo {
		refs = p.searchVideos(ctx, term, count)
	}
	if len(refs) < count {
		refs = append(refs, p.searchPhotos(ctx, term, count-len(refs))...)
	}
	rand.Shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })
	if len(refs) > count {
		refs = refs[:count]
	}
	return refs
}

func (p *PexelsLocator) searchVideos(ctx context.Context, term string, count int) []Ref {
	q := url.Values{}
	q.Set("query", term)
	q.Set("per_page", "30")
	q.Set("page", fmt.Sprint(1+rand.IntN(3)))
	q.Set("orientation", p.orientation())

	var parsed pexelsVideoResponse
	if err := p.get(ctx, "https://api.pexels.com/videos/search?"+q.Encode(), &parsed); err != nil {
		p.log.Warn("pexels video search failed", "term", term, "error", err)
		return nil
	}

	videos := parsed.Videos
	rand.Shuffle(len(videos), func(i, j int) { videos[i], videos[j] = videos[j], videos[i] })

	var refs []Ref
	for _, video := range videos {
		for _, file := range video.VideoFiles {
			if p.Portrait {
				if file.Height > file.Width {
					refs = append(refs, Ref{Source: file.Link, Kind: KindRemoteVideo})
					break
				}
			} else if file.Width >= 1280 {
				refs = append(refs, Ref{Source: file.Link, Kind: KindRemoteVideo})
				break
			}
		}
		if len(refs) >= count {
			break
		}
	}
	return refs
}

func (p *PexelsLocator) searchPhotos(ctx context.Context, term string, count int) []Ref {
	q := url.Values{}
	q.Set("query", term)
	q.Set("per_page", "50")
	q.Set("page", fmt.Sprint(1+rand.IntN(3)))
	q.Set("orientation", p.orientation())

	var parsed pexelsPhotoResponse
	if err := p.get(ctx, "https://api.pexels.com/v1/search?"+q.Encode(), &parsed); err != nil {
		p.log.Warn("pexels photo search failed", "term", term, "error", err)
		return nil
	}

	photos := parsed.Photos
	rand.Shuffle(len(photos), func(i, j int) { photos[i], photos[j] = photos[j], photos[i] })

	var refs []Ref
	for _, photo := range photos {
		if photo.Src.Large2x == "" {
			continue
		}
		refs = append(refs, Ref{Source: photo.Src.Large2x, Kind: KindRemotePhoto})
		if len(refs) >= count {
			break
		}
	}
	return refs
}

func (p *PexelsLocator) orientation() string {
	if p.Portrait {
		return "portrait"
	}
	return "landscape"
}

func (p *PexelsLocator) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", p.APIKey)

	httpClient := p.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
