package curation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sgt-cod/youtube-automation-news/media"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, "", "")
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	req := NewRequest(KindMedia, []Candidate{
		{Kind: KindMedia, Text: "primeiro trecho", Media: media.Ref{Source: "a.jpg", Kind: media.KindLocalPhoto}},
		{Kind: KindMedia, Text: "segundo trecho", Media: media.Ref{Source: "b.jpg", Kind: media.KindLocalPhoto}},
	})
	req.Decide(0, DecisionApproved)
	if err := store.Save(ctx, req); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected record after save")
	}
	if got.Status != StatusPending {
		t.Fatalf("status = %q, want %q", got.Status, StatusPending)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	if got.Decisions[0] != DecisionApproved {
		t.Fatalf("decision[0] = %q, want %q", got.Decisions[0], DecisionApproved)
	}
	if got.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", got.Cursor)
	}

	if err := store.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatalf("record survived delete")
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("delete on missing record: %v", err)
	}
}

func TestFileStoreDiskFormat(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, "", "")
	ctx := context.Background()

	req := NewRequest(KindMedia, []Candidate{{Kind: KindMedia, Text: "trecho"}})
	if err := store.Save(ctx, req); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "curacao_pendente.json"))
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	for _, field := range []string{`"segmentos"`, `"status": "aguardando"`, `"segmento_atual"`, `"aprovacoes"`, `"aguardando_foto"`} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("state file missing %s:\n%s", field, data)
		}
	}
}

func TestFileStoreThumbnailRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, "", "")
	ctx := context.Background()

	rec := ThumbnailRecord{Title: "Título do vídeo", Status: StatusPending, Timestamp: time.Now()}
	if err := store.SaveThumbnail(ctx, rec); err != nil {
		t.Fatalf("save thumbnail: %v", err)
	}
	got, ok, err := store.LoadThumbnail(ctx)
	if err != nil || !ok {
		t.Fatalf("load thumbnail: ok=%v err=%v", ok, err)
	}
	if got.Title != rec.Title || got.Status != StatusPending {
		t.Fatalf("thumbnail record = %+v", got)
	}
	if err := store.DeleteThumbnail(ctx); err != nil {
		t.Fatalf("delete thumbnail: %v", err)
	}
	if _, ok, _ := store.LoadThumbnail(ctx); ok {
		t.Fatalf("thumbnail record survived delete")
	}
}

func TestRequestResolvedKeepsContext(t *testing.T) {
	req := NewRequest(KindMedia, []Candidate{
		{Kind: KindMedia, Text: "trecho original", Keywords: []string{"brasil"}, Media: media.Ref{Source: "old.jpg", Kind: media.KindLocalPhoto}},
	})
	req.Replace(0, Replacement{Media: media.Ref{Source: "new.jpg", Kind: media.KindLocalPhoto}})

	resolved := req.Resolved()
	if resolved[0].Media.Source != "new.jpg" {
		t.Fatalf("media = %q, want new.jpg", resolved[0].Media.Source)
	}
	if !resolved[0].Custom {
		t.Fatalf("replacement not marked custom")
	}
	if resolved[0].Text != "trecho original" || len(resolved[0].Keywords) != 1 {
		t.Fatalf("replacement touched candidate context: %+v", resolved[0])
	}
	if req.Items[0].Media.Source != "old.jpg" {
		t.Fatalf("original item mutated: %+v", req.Items[0])
	}
}
