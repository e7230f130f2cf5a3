package tui

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode selects how fetch and bootstrap progress reach the user.
type OutputMode int

const (
	// ModeTUI redraws a live table with bubbletea.
	ModeTUI OutputMode = iota
	// ModePlain logs progress and prints one static table at the end.
	ModePlain
	// ModeJSON prints a single JSON report.
	ModeJSON
)

// DetectMode picks the output mode for out from the flags and the process
// environment.
func DetectMode(out io.Writer, noProgress, jsonOutput bool) OutputMode {
	return detectMode(out, noProgress, jsonOutput, os.Getenv)
}

func detectMode(out io.Writer, noProgress, jsonOutput bool, getenv func(string) string) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case noProgress, getenv("CI") != "":
		return ModePlain
	case !interactive(out):
		return ModePlain
	case runtime.GOOS != "windows" && dumbTerminal(getenv("TERM")):
		return ModePlain
	default:
		return ModeTUI
	}
}

// interactive reports whether out is a terminal, including the pipes that
// Cygwin and MSYS terminals present.
func interactive(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func dumbTerminal(term string) bool {
	return term == "" || strings.EqualFold(term, "dumb")
}
