package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type call struct {
	name string
	args []string
}

func fakeRunner(calls *[]call, probeOut string) func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name: name, args: args})
		if name == "ffprobe" {
			return []byte(probeOut + "\n"), nil
		}
		return nil, nil
	}
}

func TestComposeRendersClipsThenConcats(t *testing.T) {
	var calls []call
	c := NewComposer(t.TempDir(), nil)
	c.run = fakeRunner(&calls, "10.0")

	clips := []Clip{
		{MediaPath: "a.jpg", Duration: 4},
		{MediaPath: "b.mp4", IsVideo: true, Duration: 6},
	}
	if err := c.Compose(context.Background(), clips, "voz.mp3", "final.mp4", ShortProfile); err != nil {
		t.Fatalf("compose: %v", err)
	}

	// ffprobe, two clip renders, one concat.
	if len(calls) != 4 {
		t.Fatalf("calls = %d, want 4", len(calls))
	}
	if calls[0].name != "ffprobe" {
		t.Fatalf("first call = %s, want ffprobe", calls[0].name)
	}
	if !hasArg(calls[1].args, "-loop") {
		t.Fatalf("image clip missing -loop: %v", calls[1].args)
	}
	if hasArg(calls[2].args, "-loop") {
		t.Fatalf("video clip should not loop: %v", calls[2].args)
	}
	last := calls[3].args
	if !hasArgPair(last, "-f", "concat") {
		t.Fatalf("final call is not a concat: %v", last)
	}
	if !hasArgPair(last, "-c:a", "aac") || !hasArgPair(last, "-b:v", "8000k") {
		t.Fatalf("concat encoder args wrong: %v", last)
	}
	if last[len(last)-1] != "final.mp4" {
		t.Fatalf("output = %s, want final.mp4", last[len(last)-1])
	}

	list, err := os.ReadFile(filepath.Join(c.WorkDir, "clips.txt"))
	if err != nil {
		t.Fatalf("concat list: %v", err)
	}
	if strings.Count(string(list), "file '") != 2 {
		t.Fatalf("concat list entries wrong:\n%s", list)
	}
}

func TestComposeStretchesLastClipToAudio(t *testing.T) {
	var calls []call
	c := NewComposer(t.TempDir(), nil)
	c.run = fakeRunner(&calls, "12.5")

	clips := []Clip{
		{MediaPath: "a.jpg", Duration: 4},
		{MediaPath: "b.jpg", Duration: 4},
	}
	if err := c.Compose(context.Background(), clips, "voz.mp3", "final.mp4", LongProfile); err != nil {
		t.Fatalf("compose: %v", err)
	}

	// Second clip render must carry the stretched duration 8.5s.
	got := argAfter(calls[2].args, "-t")
	if got != "8.500" {
		t.Fatalf("last clip duration = %q, want 8.500", got)
	}
}

func TestProfileGeometry(t *testing.T) {
	short := imageClipArgs("a.jpg", "out.mp4", 5, ShortProfile)
	filter := argAfter(short, "-vf")
	if !strings.Contains(filter, "s=1080x1920") || !strings.Contains(filter, "fps=30") {
		t.Fatalf("short filter = %q", filter)
	}
	if !strings.Contains(filter, "zoompan") {
		t.Fatalf("short filter missing zoompan: %q", filter)
	}

	long := videoClipArgs("b.mp4", "out.mp4", 5, LongProfile)
	filter = argAfter(long, "-vf")
	if !strings.Contains(filter, "crop=1920:1080") {
		t.Fatalf("long filter = %q", filter)
	}
	if got := argAfter(long, "-r"); got != "24" {
		t.Fatalf("long fps = %q, want 24", got)
	}
	if got := argAfter(long, "-b:v"); got != "5000k" {
		t.Fatalf("long bitrate = %q, want 5000k", got)
	}
}

func TestProbeDuration(t *testing.T) {
	var calls []call
	c := NewComposer(t.TempDir(), nil)
	c.run = fakeRunner(&calls, "  37.208000 ")

	dur, err := c.ProbeDuration(context.Background(), "voz.mp3")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if dur != 37.208 {
		t.Fatalf("duration = %v, want 37.208", dur)
	}

	c.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("N/A"), nil
	}
	if _, err := c.ProbeDuration(context.Background(), "voz.mp3"); err == nil {
		t.Fatalf("expected parse error for N/A duration")
	}
}

func TestComposeSurfacesFFmpegFailure(t *testing.T) {
	c := NewComposer(t.TempDir(), nil)
	c.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name == "ffprobe" {
			return []byte("5.0"), nil
		}
		return []byte("moov atom not found"), fmt.Errorf("exit status 1")
	}
	err := c.Compose(context.Background(), []Clip{{MediaPath: "a.jpg", Duration: 5}}, "voz.mp3", "final.mp4", ShortProfile)
	if err == nil || !strings.Contains(err.Error(), "moov atom not found") {
		t.Fatalf("err = %v, want ffmpeg output surfaced", err)
	}
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func hasArgPair(args []string, flag, value string) bool {
	return argAfter(args, flag) == value
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
