package news

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	maxFeeds          = 3
	maxEntriesPerFeed = 3
)

// Item is one headline pulled from an RSS feed.
type Item struct {
	Title   string
	Summary string
	Link    string
}

type Fetcher struct {
	Feeds   []string
	Timeout time.Duration

	log    *slog.Logger
	parser *gofeed.Parser
}

func NewFetcher(feeds []string, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		Feeds:   feeds,
		Timeout: 15 * time.Second,
		log:     log,
		parser:  gofeed.NewParser(),
	}
}

// FetchAll collects recent entries from the first feeds, tolerating
// per-feed failures. A feed that cannot be parsed is logged and skipped.
func (f *Fetcher) FetchAll(ctx context.Context) []Item {
	feeds := f.Feeds
	if len(feeds) > maxFeeds {
		feeds = feeds[:maxFeeds]
	}

	var items []Item
	for _, url := range feeds {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		fctx, cancel := context.WithTimeout(ctx, f.Timeout)
		feed, err := f.parser.ParseURLWithContext(url, fctx)
		cancel()
		if err != nil {
			f.log.Warn("rss feed skipped", "url", url, "error", err)
			continue
		}
		entries := feed.Items
		if len(entries) > maxEntriesPerFeed {
			entries = entries[:maxEntriesPerFeed]
		}
		for _, entry := range entries {
			title := strings.TrimSpace(entry.Title)
			if title == "" {
				continue
			}
			summary := strings.TrimSpace(entry.Description)
			if summary == "" {
				summary = title
			}
			items = append(items, Item{
				Title:   title,
				Summary: summary,
				Link:    strings.TrimSpace(entry.Link),
			})
		}
	}
	return items
}

// PickOne returns one random headline from the slice, or false when it
// is empty. Callers filter the slice (already-published titles) before
// picking.
func PickOne(items []Item) (Item, bool) {
	if len(items) == 0 {
		return Item{}, false
	}
	return items[rand.IntN(len(items))], true
}
