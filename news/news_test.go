package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Notícias</title>
    <item><title>Congresso vota projeto</title><description>Resumo um</description><link>http://ex.test/1</link></item>
    <item><title>Nova medida anunciada</title><description>Resumo dois</description><link>http://ex.test/2</link></item>
    <item><title>Terceira manchete</title><link>http://ex.test/3</link></item>
    <item><title>Quarta manchete fora do corte</title><link>http://ex.test/4</link></item>
  </channel>
</rss>`

func TestFetchAll_LimitsEntriesPerFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := NewFetcher([]string{srv.URL}, nil)
	items := f.FetchAll(context.Background())
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Title != "Congresso vota projeto" {
		t.Fatalf("unexpected first title: %q", items[0].Title)
	}
	// Entry without a description falls back to the title.
	if items[2].Summary != "Terceira manchete" {
		t.Fatalf("expected summary fallback, got %q", items[2].Summary)
	}
}

func TestFetchAll_SkipsBrokenFeed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer ok.Close()

	f := NewFetcher([]string{broken.URL, ok.URL}, nil)
	items := f.FetchAll(context.Background())
	if len(items) != 3 {
		t.Fatalf("expected items from the healthy feed only, got %d", len(items))
	}
}

func TestPickOne(t *testing.T) {
	if _, ok := PickOne(nil); ok {
		t.Fatal("expected ok=false with no items")
	}
	items := []Item{{Title: "Única manchete"}}
	got, ok := PickOne(items)
	if !ok || got.Title != "Única manchete" {
		t.Fatalf("PickOne = (%+v, %v), want the single item", got, ok)
	}
}
