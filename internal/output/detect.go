package output

import (
	"os"

	"golang.org/x/term"
)

// isattyFn allows overriding terminal detection in tests.
var isattyFn = isTerminal

// DetectFormat returns the output format to use. If flagFormat is
// non-empty it is returned directly (explicit flag wins). Otherwise
// "table" for a TTY stdout or "csv" for a non-TTY (pipe, redirect, etc.).
func DetectFormat(stdout *os.File, flagFormat string) string {
	if flagFormat != "" {
		return flagFormat
	}
	if isattyFn(stdout) {
		return "table"
	}
	return "csv"
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
