package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Sgt-cod/youtube-automation-news/curation"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, curation.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "run cancelled by reviewer")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps a failed run to the process exit status. A reviewer
// cancellation is an abort, not a success, so it exits non-zero like
// any other failure.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
