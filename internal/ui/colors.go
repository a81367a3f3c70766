// Package ui holds the terminal styling shared by the CLI and its output
// formats.
package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape sequences. They are blanked when stdout is not a terminal or
// NO_COLOR is set.
var (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout) {
		Disable()
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Disable turns all styling off
func Disable() {
	for _, c := range []*string{&ColorReset, &ColorBold, &ColorDim, &ColorCyan, &ColorGreen, &ColorYellow, &ColorWhite, &ColorRed} {
		*c = ""
	}
}

func Bold(s string) string {
	return ColorBold + s + ColorReset
}

func Success(s string) string {
	return ColorGreen + s + ColorReset
}

func Info(s string) string {
	return ColorDim + ColorYellow + s + ColorReset
}

func Error(s string) string {
	return ColorRed + s + ColorReset
}
