package clifmt

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const (
	codeHeader  = "1;36"
	codeSuccess = "32"
	codeDim     = "2"
	codeKey     = "1;33"
)

// Headerf renders a bold section header for the run and schedule
// commands.
func Headerf(format string, args ...any) string {
	return paint(codeHeader, fmt.Sprintf(format, args...))
}

func Success(text string) string { return paint(codeSuccess, text) }

func Dim(text string) string { return paint(codeDim, text) }

// Key highlights a label in a label/value output line.
func Key(text string) string { return paint(codeKey, text) }

// Interactive reports whether stdout is attached to a terminal. The
// logger switches to JSON output when it is not.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func paint(code, text string) string {
	if !useColor() {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}

func useColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return Interactive()
}
