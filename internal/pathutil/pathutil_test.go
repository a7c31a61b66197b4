package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHomePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", filepath.Clean(home)},
		{"~/videos/out.mp4", filepath.Join(home, "videos", "out.mp4")},
		{"  ~/videos ", filepath.Join(home, "videos")},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"~user/path", "~user/path"},
	}
	for _, tc := range cases {
		if got := ExpandHomePath(tc.in); got != tc.want {
			t.Fatalf("ExpandHomePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEnsureParent(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b", "store.db")
	if err := EnsureParent(target, 0o700); err != nil {
		t.Fatalf("ensure parent: %v", err)
	}
	st, err := os.Stat(filepath.Dir(target))
	if err != nil || !st.IsDir() {
		t.Fatalf("parent dir missing: %v", err)
	}

	if err := EnsureParent("store.db", 0o700); err != nil {
		t.Fatalf("ensure parent of bare file name: %v", err)
	}
	if err := EnsureDir("", 0o700); err != nil {
		t.Fatalf("ensure empty dir: %v", err)
	}
}
