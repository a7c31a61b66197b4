package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Engine turns narration text into an audio file on disk.
type Engine interface {
	Name() string
	Synthesize(ctx context.Context, text, outPath string) error
}

// Synthesizer retries the primary engine a fixed number of times with a
// fixed backoff, then degrades to the fallback engine. A notification
// about the degraded voice quality is the caller's concern, not this
// package's.
type Synthesizer struct {
	Primary  Engine
	Fallback Engine
	Attempts int
	Backoff  time.Duration

	log *slog.Logger
}

func NewSynthesizer(primary, fallback Engine, log *slog.Logger) *Synthesizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{
		Primary:  primary,
		Fallback: fallback,
		Attempts: 3,
		Backoff:  10 * time.Second,
		log:      log,
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text, outPath string) error {
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.trySynthesize(ctx, s.Primary, text, outPath)
		if err == nil {
			s.log.Info("narration synthesized", "engine", s.Primary.Name(), "attempt", attempt)
			return nil
		}
		lastErr = err
		s.log.Warn("tts attempt failed", "engine", s.Primary.Name(), "attempt", attempt, "error", err)
		if attempt < attempts {
			select {
			case <-time.After(s.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if s.Fallback == nil {
		return fmt.Errorf("tts: primary engine exhausted: %w", lastErr)
	}
	if err := s.trySynthesize(ctx, s.Fallback, text, outPath); err != nil {
		return fmt.Errorf("tts: fallback engine failed after primary exhausted: %w", err)
	}
	s.log.Warn("narration synthesized with fallback engine", "engine", s.Fallback.Name())
	return nil
}

func (s *Synthesizer) trySynthesize(ctx context.Context, engine Engine, text, outPath string) error {
	if engine == nil {
		return fmt.Errorf("nil engine")
	}
	if err := engine.Synthesize(ctx, text, outPath); err != nil {
		return err
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("synthesized file missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("synthesized file is empty")
	}
	return nil
}
