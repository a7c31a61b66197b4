package main

import (
	"fmt"
	"testing"

	"github.com/Sgt-cod/youtube-automation-news/curation"
)

func TestExitCodeNonZeroOnCancellation(t *testing.T) {
	if got := exitCode(curation.ErrCancelled); got == 0 {
		t.Fatalf("cancelled run exited %d, want non-zero", got)
	}
	wrapped := fmt.Errorf("run: %w", curation.ErrCancelled)
	if got := exitCode(wrapped); got == 0 {
		t.Fatalf("wrapped cancellation exited %d, want non-zero", got)
	}
	if got := exitCode(nil); got != 0 {
		t.Fatalf("clean run exited %d, want 0", got)
	}
}
