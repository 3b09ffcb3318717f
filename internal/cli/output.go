package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/ayr/internal/presentation/graph"
	"github.com/aretw0/ayr/internal/presentation/report"
	"github.com/aretw0/ayr/internal/presentation/tui"
	"github.com/aretw0/ayr/pkg/domain"
)

// Output formats accepted by --format.
const (
	FormatAuto     = "auto"
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatMermaid  = "mermaid"
)

// Formats lists the accepted --format values.
var Formats = []string{FormatAuto, FormatText, FormatMarkdown, FormatJSON, FormatMermaid}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ResolveFormat turns auto into markdown on a terminal and text otherwise.
func ResolveFormat(format string, w io.Writer) string {
	if format == "" || format == FormatAuto {
		if IsTerminal(w) {
			return FormatMarkdown
		}
		return FormatText
	}
	return format
}

// PrintView writes the view to w in the given format.
func PrintView(w io.Writer, v domain.View, format string) error {
	switch ResolveFormat(format, w) {
	case FormatText:
		_, err := io.WriteString(w, report.Plain(v))
		return err
	case FormatMarkdown:
		out, err := tui.NewRenderer()(report.Markdown(v))
		if err != nil {
			out = report.Markdown(v)
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatMermaid:
		_, err := io.WriteString(w, graph.GenerateTimeline(v.Trace, graph.OverlayFor(v)))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
