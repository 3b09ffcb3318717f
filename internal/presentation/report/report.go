// Package report formats a workspace view for terminals, as plain text or as
// markdown for glamour.
package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/ayr/pkg/domain"
)

var traceLinePattern = regexp.MustCompile(`line\s+(\d+)`)

// TraceLine returns the source line a trace entry refers to, or 0.
// Entries are either timeline strings ("... line 4 ...") or objects with a line field.
func TraceLine(entry any) int {
	switch e := entry.(type) {
	case string:
		if m := traceLinePattern.FindStringSubmatch(e); len(m) > 1 {
			var n int
			fmt.Sscanf(m[1], "%d", &n)
			return n
		}
	case map[string]any:
		switch n := e["line"].(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}

// TraceLabel is the one-line text of a trace entry.
func TraceLabel(entry any) string {
	switch e := entry.(type) {
	case string:
		return e
	case map[string]any:
		if line := TraceLine(e); line > 0 {
			return fmt.Sprintf("step %v at line %d", e["i"], line)
		}
		return fmt.Sprintf("step %v", e["i"])
	default:
		return compact(e)
	}
}

// Header summarizes the execution state in one line.
func Header(v domain.View) string {
	parts := []string{string(v.Phase)}
	if v.Phase.IsDebug() {
		parts = append(parts, fmt.Sprintf("cursor %d", v.Cursor))
	}
	if v.SessionID != "" {
		parts = append(parts, "session "+v.SessionID)
	}
	if v.Busy {
		parts = append(parts, "busy")
	}
	return strings.Join(parts, " · ")
}

// ProblemLine renders one problem without its kind.
func ProblemLine(p domain.Problem) string {
	s := strings.TrimSpace(p.Title + " " + p.Message)
	if p.Expression != "" {
		s += " [" + p.Expression + "]"
	}
	return s
}

// Plain renders the view as plain text: header, output, problems, prompt and
// the active inspector tab when it is not one of those.
func Plain(v domain.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", Header(v))

	if len(v.Output) > 0 {
		b.WriteString("Output:\n")
		for _, line := range v.Output {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if len(v.Problems) > 0 {
		fmt.Fprintf(&b, "Problems (%s):\n", summaryText(v.Summary))
		for _, p := range v.Problems {
			fmt.Fprintf(&b, "  %-7s %s\n", p.Kind, ProblemLine(p))
		}
	}
	if v.InputPrompt != nil {
		fmt.Fprintf(&b, "Input requested%s: %s\n", lineSuffix(v.InputPrompt.Line), v.InputPrompt.Message)
	}

	switch v.ActiveTab {
	case domain.TabVariables, domain.TabDebug:
		writePlainEnv(&b, v.Environment)
	case domain.TabTimeline:
		b.WriteString("Timeline:\n")
		for i, entry := range v.Trace {
			fmt.Fprintf(&b, "  %3d %s\n", i, TraceLabel(entry))
		}
	case domain.TabDetail:
		fmt.Fprintf(&b, "Detail:\n  %s\n", compact(v.Detail))
	case domain.TabMemory:
		fmt.Fprintf(&b, "Memory: %.1f KB\n", v.MemoryKB)
	}
	return b.String()
}

func writePlainEnv(b *strings.Builder, env map[string]any) {
	b.WriteString("Variables:\n")
	for _, k := range sortedKeys(env) {
		fmt.Fprintf(b, "  %s = %s\n", k, compact(env[k]))
	}
}

// Markdown renders the view as a markdown document.
func Markdown(v domain.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Header(v))

	if v.InputPrompt != nil {
		fmt.Fprintf(&b, "> **Input requested%s:** %s\n\n", lineSuffix(v.InputPrompt.Line), v.InputPrompt.Message)
	}

	if len(v.Problems) > 0 {
		fmt.Fprintf(&b, "## Problems (%s)\n\n", summaryText(v.Summary))
		for _, p := range v.Problems {
			fmt.Fprintf(&b, "- **%s** %s %s", p.Kind, p.Title, p.Message)
			if p.Expression != "" {
				fmt.Fprintf(&b, " `%s`", p.Expression)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(v.Output) > 0 {
		b.WriteString("## Output\n\n```\n")
		for _, line := range v.Output {
			b.WriteString(line + "\n")
		}
		b.WriteString("```\n\n")
	}

	switch v.ActiveTab {
	case domain.TabVariables, domain.TabDebug:
		if len(v.Environment) > 0 {
			b.WriteString("## Variables\n\n| name | value |\n|---|---|\n")
			for _, k := range sortedKeys(v.Environment) {
				fmt.Fprintf(&b, "| `%s` | `%s` |\n", k, compact(v.Environment[k]))
			}
			b.WriteString("\n")
		}
	case domain.TabTimeline:
		b.WriteString("## Timeline\n\n")
		for i, entry := range v.Trace {
			marker := ""
			if i == v.Cursor {
				marker = " ◀"
			}
			fmt.Fprintf(&b, "%d. %s%s\n", i, TraceLabel(entry), marker)
		}
		b.WriteString("\n")
	case domain.TabDetail:
		fmt.Fprintf(&b, "## Detail\n\n```json\n%s\n```\n\n", indent(v.Detail))
	case domain.TabMemory:
		fmt.Fprintf(&b, "## Memory\n\n%.1f KB\n\n", v.MemoryKB)
	}
	return b.String()
}

func summaryText(s domain.Summary) string {
	var parts []string
	if s.TotalErrors > 0 {
		parts = append(parts, plural(s.TotalErrors, "error"))
	}
	if s.TotalWarnings > 0 {
		parts = append(parts, plural(s.TotalWarnings, "warning"))
	}
	if s.TotalBugs > 0 {
		parts = append(parts, plural(s.TotalBugs, "bug"))
	}
	if len(parts) == 0 {
		return plural(s.TotalProblems, "problem")
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func lineSuffix(line *int) string {
	if line == nil {
		return ""
	}
	return fmt.Sprintf(" (line %d)", *line)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func indent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
