package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/ayr/pkg/domain"
)

func TestTraceLine(t *testing.T) {
	tests := []struct {
		name  string
		entry any
		want  int
	}{
		{"object", map[string]any{"i": float64(0), "line": float64(5)}, 5},
		{"string", "step 3: line 12 x = 1", 12},
		{"no line", "return", 0},
		{"other", 42, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TraceLine(tt.entry))
		})
	}
}

func sampleView() domain.View {
	line := 3
	v := domain.NewView()
	v.Output = []string{"hello"}
	v.Problems = []domain.Problem{{Kind: domain.KindError, Title: "NameError", Message: "x is not defined", Line: &line, Expression: "x + 1"}}
	v.Summary = domain.Summary{TotalErrors: 1, TotalProblems: 1}
	v.Environment = map[string]any{"b": float64(2), "a": "one"}
	v.Trace = []any{map[string]any{"i": float64(0), "line": float64(1)}, "call f at line 2"}
	return v
}

func TestPlain(t *testing.T) {
	v := sampleView()
	v.InputPrompt = &domain.InputPrompt{Line: &[]int{4}[0], Message: "name?"}
	out := Plain(v)

	assert.Contains(t, out, "[idle]")
	assert.Contains(t, out, "  hello")
	assert.Contains(t, out, "Problems (1 error):")
	assert.Contains(t, out, "NameError x is not defined [x + 1]")
	assert.Contains(t, out, "Input requested (line 4): name?")
	assert.NotContains(t, out, "Variables:")

	v.ActiveTab = domain.TabVariables
	out = Plain(v)
	assert.Regexp(t, `(?s)a = "one".*b = 2`, out)
}

func TestMarkdownTabs(t *testing.T) {
	v := sampleView()
	v.Phase = domain.PhaseDebugActive
	v.Cursor = 1
	v.SessionID = "s-1"

	v.ActiveTab = domain.TabTimeline
	out := Markdown(v)
	assert.Contains(t, out, "# debug_active · cursor 1 · session s-1")
	assert.Contains(t, out, "0. step 0 at line 1\n")
	assert.Contains(t, out, "1. call f at line 2 ◀")

	v.ActiveTab = domain.TabDetail
	v.Detail = map[string]any{"frame": "main"}
	assert.Contains(t, Markdown(v), "\"frame\": \"main\"")

	v.ActiveTab = domain.TabMemory
	v.MemoryKB = 12.5
	assert.Contains(t, Markdown(v), "12.5 KB")
}

func TestSummaryText(t *testing.T) {
	assert.Equal(t, "0 problems", summaryText(domain.Summary{}))
	assert.Equal(t, "2 errors, 1 warning", summaryText(domain.Summary{TotalErrors: 2, TotalWarnings: 1, TotalProblems: 3}))
	assert.Equal(t, "1 bug", summaryText(domain.Summary{TotalBugs: 1, TotalProblems: 1}))
}
