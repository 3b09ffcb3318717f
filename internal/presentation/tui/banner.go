package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ayr banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"    __ _ _   _ _ __ ", "#34d399"},
		{"   / _` | | | | '__|", "#2dd4bf"},
		{"  | (_| | |_| | |   ", "#22d3ee"},
		{"   \\__,_|\\__, |_|   ", "#38bdf8"},
		{"         |___/      ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
