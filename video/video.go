package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Profile fixes the output geometry and encoder settings for one video
// format.
type Profile struct {
	Width   int
	Height  int
	FPS     int
	Bitrate string
}

// ShortProfile is the vertical format for shorts.
var ShortProfile = Profile{Width: 1080, Height: 1920, FPS: 30, Bitrate: "8000k"}

// LongProfile is the horizontal format for regular videos.
var LongProfile = Profile{Width: 1920, Height: 1080, FPS: 24, Bitrate: "5000k"}

// Clip is one visual unit of the final cut: a still image animated with
// a slow zoom, or a video trimmed to the slot duration.
type Clip struct {
	MediaPath string
	IsVideo   bool
	Duration  float64
}

// Composer renders the final video by shelling out to ffmpeg. The run
// hook exists so tests can capture the exact argument lists.
type Composer struct {
	FFmpeg  string
	FFprobe string
	WorkDir string

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
	log *slog.Logger
}

func NewComposer(workDir string, log *slog.Logger) *Composer {
	if log == nil {
		log = slog.Default()
	}
	return &Composer{
		FFmpeg:  "ffmpeg",
		FFprobe: "ffprobe",
		WorkDir: workDir,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		log: log,
	}
}

// Compose renders clips into outPath with audioPath as the soundtrack.
// When the clips run shorter than the audio the last clip is stretched
// to cover the gap so the narration is never cut off.
func (c *Composer) Compose(ctx context.Context, clips []Clip, audioPath, outPath string, p Profile) error {
	if len(clips) == 0 {
		return fmt.Errorf("compose: no clips")
	}

	audioDur, err := c.ProbeDuration(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	clips = fillGap(clips, audioDur)

	listPath := filepath.Join(c.WorkDir, "clips.txt")
	var list strings.Builder
	for i, clip := range clips {
		clipPath := filepath.Join(c.WorkDir, fmt.Sprintf("clip_%03d.mp4", i))
		var args []string
		if clip.IsVideo {
			args = videoClipArgs(clip.MediaPath, clipPath, clip.Duration, p)
		} else {
			args = imageClipArgs(clip.MediaPath, clipPath, clip.Duration, p)
		}
		c.log.Debug("render clip", "index", i, "media", clip.MediaPath, "duration", clip.Duration)
		if out, err := c.run(ctx, c.FFmpeg, args...); err != nil {
			return fmt.Errorf("render clip %d: %w: %s", i, err, strings.TrimSpace(string(out)))
		}
		fmt.Fprintf(&list, "file '%s'\n", clipPath)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o600); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	args := concatArgs(listPath, audioPath, outPath, p)
	if out, err := c.run(ctx, c.FFmpeg, args...); err != nil {
		return fmt.Errorf("concat: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Thumbnail grabs a frame from the finished video for the automatic
// thumbnail, used when the reviewer does not upload a custom one.
func (c *Composer) Thumbnail(ctx context.Context, videoPath, outPath string) error {
	args := []string{
		"-y",
		"-i", videoPath,
		"-ss", "1",
		"-vframes", "1",
		"-vf", "scale=1280:-2",
		outPath,
	}
	if out, err := c.run(ctx, c.FFmpeg, args...); err != nil {
		return fmt.Errorf("thumbnail: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ProbeDuration returns the media duration in seconds via ffprobe.
func (c *Composer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := c.run(ctx, c.FFprobe, probeArgs(path)...)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("probe %s: parse duration %q: %w", path, strings.TrimSpace(string(out)), err)
	}
	return dur, nil
}

// fillGap stretches the last clip so the total visual duration covers
// the soundtrack.
func fillGap(clips []Clip, audioDur float64) []Clip {
	if audioDur <= 0 {
		return clips
	}
	var total float64
	for _, clip := range clips {
		total += clip.Duration
	}
	if total >= audioDur {
		return clips
	}
	out := make([]Clip, len(clips))
	copy(out, clips)
	out[len(out)-1].Duration += audioDur - total
	return out
}

// imageClipArgs animates a still with a slow push-in centered on the
// frame, scaled to cover the target geometry.
func imageClipArgs(src, dst string, dur float64, p Profile) []string {
	frames := int(dur * float64(p.FPS))
	if frames < 1 {
		frames = 1
	}
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,"+
			"zoompan=z='min(zoom+0.0015,1.15)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
		p.Width*2, p.Height*2, p.Width*2, p.Height*2,
		frames, p.Width, p.Height, p.FPS,
	)
	return []string{
		"-y",
		"-loop", "1",
		"-i", src,
		"-t", formatSeconds(dur),
		"-vf", filter,
		"-r", strconv.Itoa(p.FPS),
		"-c:v", "libx264",
		"-b:v", p.Bitrate,
		"-pix_fmt", "yuv420p",
		"-an",
		dst,
	}
}

// videoClipArgs trims a source video to the slot and crops it to cover
// the target geometry.
func videoClipArgs(src, dst string, dur float64, p Profile) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		p.Width, p.Height, p.Width, p.Height,
	)
	return []string{
		"-y",
		"-i", src,
		"-t", formatSeconds(dur),
		"-vf", filter,
		"-r", strconv.Itoa(p.FPS),
		"-c:v", "libx264",
		"-b:v", p.Bitrate,
		"-pix_fmt", "yuv420p",
		"-an",
		dst,
	}
}

func concatArgs(listPath, audioPath, outPath string, p Profile) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-i", audioPath,
		"-c:v", "libx264",
		"-b:v", p.Bitrate,
		"-r", strconv.Itoa(p.FPS),
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-shortest",
		outPath,
	}
}

func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

func formatSeconds(d float64) string {
	return strconv.FormatFloat(d, 'f', 3, 64)
}
