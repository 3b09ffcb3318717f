package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ayr/internal/presentation/report"
	"github.com/aretw0/ayr/pkg/domain"
)

// TimelineOverlay marks positions of the debug history to highlight.
type TimelineOverlay struct {
	// Cursor is the step the debugger currently shows. Negative disables it.
	Cursor int
	// ErrorLines are source lines reported by problems.
	ErrorLines map[int]bool
}

// OverlayFor derives the overlay from a view: the cursor in debug phases and
// the lines of every located problem.
func OverlayFor(v domain.View) *TimelineOverlay {
	o := &TimelineOverlay{Cursor: -1, ErrorLines: map[int]bool{}}
	if v.Phase.IsDebug() {
		o.Cursor = v.Cursor
	}
	for _, p := range v.Problems {
		if p.Line != nil {
			o.ErrorLines[*p.Line] = true
		}
	}
	return o
}

// GenerateTimeline produces a Mermaid flowchart of an execution trace.
// Each entry becomes a node labeled by its source line. Consecutive entries on
// the same line collapse into one node with a repeat count, and a jump back to
// an earlier line is drawn as a dotted edge.
func GenerateTimeline(trace []any, overlay *TimelineOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	type step struct {
		id    string
		line  int
		first int
		last  int
		count int
	}
	var steps []*step
	for i, entry := range trace {
		line := report.TraceLine(entry)
		if n := len(steps); n > 0 && line != 0 && steps[n-1].line == line {
			steps[n-1].last = i
			steps[n-1].count++
			continue
		}
		steps = append(steps, &step{id: fmt.Sprintf("s%d", i), line: line, first: i, last: i, count: 1})
	}

	for i, s := range steps {
		label := fmt.Sprintf("#%d", s.first)
		if s.line > 0 {
			label = fmt.Sprintf("line %d", s.line)
		}
		if s.count > 1 {
			label += fmt.Sprintf(" ×%d", s.count)
		}
		opener, closer := "[", "]"
		if i == 0 {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", s.id, opener, escapeLabel(label), closer))

		if i > 0 {
			prev := steps[i-1]
			arrow := "-->"
			if s.line > 0 && prev.line > 0 && s.line < prev.line {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", prev.id, arrow, s.id))
		}
	}

	if overlay != nil && len(steps) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef error fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000;\n")

		for _, s := range steps {
			switch {
			case overlay.Cursor >= s.first && overlay.Cursor <= s.last:
				sb.WriteString(fmt.Sprintf("    class %s current;\n", s.id))
			case overlay.ErrorLines[s.line]:
				sb.WriteString(fmt.Sprintf("    class %s error;\n", s.id))
			case overlay.Cursor > s.last:
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", s.id))
			}
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
