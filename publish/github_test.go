package publish

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v66/github"
)

func newTestMirror(t *testing.T, srv *httptest.Server) *ReleaseMirror {
	t.Helper()
	client := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	client.BaseURL = base
	return &ReleaseMirror{client: client, owner: "dono", repo: "backup", log: testLogger()}
}

func TestReleaseMirrorRemove(t *testing.T) {
	var gotRelease, deletedRelease, deletedRef bool
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/dono/backup/releases/tags/video-20260101-000000", func(w http.ResponseWriter, r *http.Request) {
		gotRelease = true
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 77, "tag_name": "video-20260101-000000"}`))
	})
	mux.HandleFunc("/repos/dono/backup/releases/77", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("release endpoint got %s, want DELETE", r.Method)
		}
		deletedRelease = true
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/repos/dono/backup/git/refs/tags/video-20260101-000000", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("ref endpoint got %s, want DELETE", r.Method)
		}
		deletedRef = true
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newTestMirror(t, srv)
	if err := m.Remove(context.Background(), "video-20260101-000000"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !gotRelease || !deletedRelease || !deletedRef {
		t.Fatalf("lookup=%v deleteRelease=%v deleteRef=%v, want all true", gotRelease, deletedRelease, deletedRef)
	}
}

func TestReleaseMirrorRemoveUnknownTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newTestMirror(t, srv)
	if err := m.Remove(context.Background(), "video-inexistente"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}
