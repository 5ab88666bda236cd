package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Plotline ASCII banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"        _       _   _ _            ", "#818cf8"},
		{"  _ __ | | ___ | |_| (_)_ __   ___ ", "#a78bfa"},
		{" | '_ \\| |/ _ \\| __| | | '_ \\ / _ \\", "#c084fc"},
		{" | |_) | | (_) | |_| | | | | |  __/", "#e879f9"},
		{" | .__/|_|\\___/ \\__|_|_|_| |_|\\___|", "#f472b6"},
		{" |_|", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(" v"+version).Faint())
	fmt.Fprintln(w)
}
