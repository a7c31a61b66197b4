package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "final.mp4")
	if err := os.WriteFile(path, []byte("fake mp4 payload"), 0o600); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func TestTikTokUploadFlow(t *testing.T) {
	var uploaded atomic.Bool
	var statusCalls atomic.Int32

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v2/post/publish/video/init/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		var req tiktokInitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode init: %v", err)
		}
		if req.SourceInfo.Source != "FILE_UPLOAD" || req.SourceInfo.VideoSize == 0 {
			t.Errorf("source info = %+v", req.SourceInfo)
		}
		fmt.Fprintf(w, `{"data":{"publish_id":"pub-1","upload_url":"%s/upload"},"error":{"code":"ok"}}`, srv.URL)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("upload method = %s", r.Method)
		}
		if cr := r.Header.Get("Content-Range"); !strings.HasPrefix(cr, "bytes 0-") {
			t.Errorf("content-range = %q", cr)
		}
		uploaded.Store(true)
	})
	mux.HandleFunc("/v2/post/publish/status/fetch/", func(w http.ResponseWriter, r *http.Request) {
		status := "PROCESSING_UPLOAD"
		if statusCalls.Add(1) >= 2 {
			status = "PUBLISH_COMPLETE"
		}
		fmt.Fprintf(w, `{"data":{"status":"%s"},"error":{"code":"ok"}}`, status)
	})

	u := NewTikTokUploader("tok", testLogger())
	u.BaseURL = srv.URL
	u.PollDelay = time.Millisecond

	id, err := u.Upload(context.Background(), Video{Path: writeTestVideo(t), Title: "Notícias de hoje"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if id != "pub-1" {
		t.Fatalf("publish id = %q, want pub-1", id)
	}
	if !uploaded.Load() {
		t.Fatalf("file never uploaded")
	}
	if statusCalls.Load() < 2 {
		t.Fatalf("status polled %d times, want at least 2", statusCalls.Load())
	}
}

func TestTikTokUploadFailedStatus(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v2/post/publish/video/init/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":{"publish_id":"pub-2","upload_url":"%s/upload"},"error":{"code":"ok"}}`, srv.URL)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/v2/post/publish/status/fetch/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"status":"FAILED","fail_reason":"video_too_short"},"error":{"code":"ok"}}`)
	})

	u := NewTikTokUploader("tok", testLogger())
	u.BaseURL = srv.URL
	u.PollDelay = time.Millisecond

	_, err := u.Upload(context.Background(), Video{Path: writeTestVideo(t), Title: "t"})
	if err == nil || !strings.Contains(err.Error(), "video_too_short") {
		t.Fatalf("err = %v, want failure reason surfaced", err)
	}
}

func TestTikTokInitAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{},"error":{"code":"access_token_invalid","message":"token expired"}}`)
	}))
	defer srv.Close()

	u := NewTikTokUploader("tok", testLogger())
	u.BaseURL = srv.URL

	_, err := u.Upload(context.Background(), Video{Path: writeTestVideo(t), Title: "t"})
	if err == nil || !strings.Contains(err.Error(), "token expired") {
		t.Fatalf("err = %v, want api error surfaced", err)
	}
}
