package tui

import (
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/aretw0/ayr/internal/presentation/report"
	"github.com/aretw0/ayr/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// NewViewRenderer renders a whole view as styled markdown.
func NewViewRenderer() func(domain.View) (string, error) {
	render := NewRenderer()
	return func(v domain.View) (string, error) {
		return render(report.Markdown(v))
	}
}

// KindStyle colors a problem kind label for the current terminal.
func KindStyle(kind domain.ProblemKind) termenv.Style {
	p := termenv.ColorProfile()
	s := termenv.String(string(kind)).Bold()
	switch kind {
	case domain.KindError:
		return s.Foreground(p.Color("#ef4444"))
	case domain.KindWarning:
		return s.Foreground(p.Color("#f59e0b"))
	case domain.KindBug:
		return s.Foreground(p.Color("#a855f7"))
	default:
		return s
	}
}

// ProblemLines renders problems one per line with colored kinds.
func ProblemLines(problems []domain.Problem) []string {
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		out = append(out, KindStyle(p.Kind).String()+" "+report.ProblemLine(p))
	}
	return out
}
