package strutil

import (
	"testing"
	"unicode/utf8"
)

func TestTruncateUTF8_Empty(t *testing.T) {
	if got := TruncateUTF8("", 10); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestTruncateUTF8_ZeroMax(t *testing.T) {
	if got := TruncateUTF8("hello", 0); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestTruncateUTF8_ASCII(t *testing.T) {
	got := TruncateUTF8("hello world", 5)
	if got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestTruncateUTF8_NoTruncation(t *testing.T) {
	s := "short"
	if got := TruncateUTF8(s, 100); got != s {
		t.Fatalf("expected %q, got %q", s, got)
	}
}

func TestTruncateUTF8_Accents(t *testing.T) {
	// Portuguese captions carry multi-byte characters.
	s := "eleição código"
	got := TruncateUTF8(s, 7)
	if !utf8.ValidString(got) {
		t.Fatalf("result is not valid UTF-8: %q", got)
	}
}

func TestEllipsize_Short(t *testing.T) {
	if got := Ellipsize("ok", 60); got != "ok" {
		t.Fatalf("expected %q, got %q", "ok", got)
	}
}

func TestEllipsize_Cut(t *testing.T) {
	got := Ellipsize("abcdefghij", 8)
	if got != "abcde..." {
		t.Fatalf("expected %q, got %q", "abcde...", got)
	}
	if len([]rune(got)) != 8 {
		t.Fatalf("expected 8 runes, got %d", len([]rune(got)))
	}
}
