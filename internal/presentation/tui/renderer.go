package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// Styling is only applied when stdout is a terminal.
func NewRenderer() func(string) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if IsTerminal(os.Stdout) {
		style = glamour.WithAutoStyle() // Automatically detect light/dark background
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
