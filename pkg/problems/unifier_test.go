package problems_test

import (
	"testing"

	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/problems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnify_StructuredProblemsAreAuthoritative(t *testing.T) {
	structured := []domain.Problem{
		{Kind: domain.KindError, Title: "Expression Error (Line 2):", Message: "division by zero", Line: domain.IntPtr(2)},
		{Kind: domain.KindWarning, Title: "Warning:", Message: "unused variable y"},
	}

	list, summary := problems.Unify(problems.Raw{
		Problems: structured,
		Error:    &problems.LegacyError{Message: "Expression Error (Line 2): division by zero", Line: domain.IntPtr(2)},
		Warnings: []any{"unused variable y", "another one"},
	})

	assert.Equal(t, structured, list)
	assert.Equal(t, domain.Summary{TotalErrors: 1, TotalWarnings: 1, TotalProblems: 2}, summary)
}

func TestUnify_LegacyErrorStripsTitleAndExpression(t *testing.T) {
	list, summary := problems.Unify(problems.Raw{
		Error: &problems.LegacyError{
			Message: "Expression Error (Line 4): Expression: x+1 failed",
			Line:    domain.IntPtr(4),
		},
	})

	require.Len(t, list, 1)
	p := list[0]
	assert.Equal(t, domain.KindError, p.Kind)
	assert.Equal(t, "Expression Error (Line 4):", p.Title)
	require.NotNil(t, p.Line)
	assert.Equal(t, 4, *p.Line)
	assert.Equal(t, "x+1 failed", p.Expression)
	assert.NotContains(t, p.Message, "Expression: x+1")
	assert.NotContains(t, p.Message, "Expression Error (Line 4):")
	assert.Equal(t, problems.FallbackMessage, p.Message)
	assert.Equal(t, domain.Summary{TotalErrors: 1, TotalProblems: 1}, summary)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		input   problems.LegacyError
		title   string
		message string
		expr    string
		hasLine bool
	}{
		{
			name:    "Runtime error without line",
			input:   problems.LegacyError{Message: "name 'z' is not defined"},
			title:   "Runtime Error:",
			message: "name 'z' is not defined",
		},
		{
			name:    "Title prefix stripped",
			input:   problems.LegacyError{Message: "Expression Error (Line 3): division by zero", Line: domain.IntPtr(3)},
			title:   "Expression Error (Line 3):",
			message: "division by zero",
			hasLine: true,
		},
		{
			name:    "Explicit expression removed from message",
			input:   problems.LegacyError{Message: "bad operand Expression: a / b", Line: domain.IntPtr(7), Expression: "a / b"},
			title:   "Expression Error (Line 7):",
			message: "bad operand",
			expr:    "a / b",
			hasLine: true,
		},
		{
			name:    "Leftover colon removed",
			input:   problems.LegacyError{Message: "Runtime Error: : overflow"},
			title:   "Runtime Error:",
			message: "overflow",
		},
		{
			name:    "Empty message falls back",
			input:   problems.LegacyError{Message: "   "},
			title:   "Runtime Error:",
			message: problems.FallbackMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := problems.FromError(tt.input)
			assert.Equal(t, tt.title, p.Title)
			assert.Equal(t, tt.message, p.Message)
			assert.Equal(t, tt.expr, p.Expression)
			assert.Equal(t, tt.hasLine, p.Line != nil)
		})
	}
}

func TestUnify_LegacyWarnings(t *testing.T) {
	list, summary := problems.Unify(problems.Raw{
		Warnings: []any{
			"shadowed name x",
			map[string]any{"message": "loop never runs", "line": float64(9)},
			map[string]any{"code": "W42"},
		},
	})

	require.Len(t, list, 3)
	assert.Equal(t, "shadowed name x", list[0].Message)
	assert.Equal(t, domain.KindWarning, list[0].Kind)
	assert.Equal(t, "Warning:", list[0].Title)

	assert.Equal(t, "loop never runs", list[1].Message)
	require.NotNil(t, list[1].Line)
	assert.Equal(t, 9, *list[1].Line)

	assert.Equal(t, `{"code":"W42"}`, list[2].Message)
	assert.Equal(t, domain.Summary{TotalWarnings: 3, TotalProblems: 3}, summary)
}

func TestUnify_LegacyListsKeepKindOrderAndDropDuplicates(t *testing.T) {
	list, summary := problems.Unify(problems.Raw{
		Bugs:     []any{"off by one"},
		Warnings: []any{"slow loop", "slow loop"},
		Errors:   []any{map[string]any{"title": "Input Required (Line 1):", "message": "needs input", "line": float64(1)}},
	})

	require.Len(t, list, 3)
	assert.Equal(t, domain.KindError, list[0].Kind)
	assert.Equal(t, "Input Required (Line 1):", list[0].Title)
	assert.Equal(t, domain.KindWarning, list[1].Kind)
	assert.Equal(t, domain.KindBug, list[2].Kind)
	assert.Equal(t, domain.Summary{TotalErrors: 1, TotalWarnings: 1, TotalBugs: 1, TotalProblems: 3}, summary)
	assert.True(t, summary.Consistent())
}

func TestUnify_RemoteSummaryIsTrusted(t *testing.T) {
	remote := domain.Summary{TotalErrors: 5, TotalProblems: 5}

	list, summary := problems.Unify(problems.Raw{
		Problems: []domain.Problem{{Kind: domain.KindError, Message: "boom"}},
		Summary:  &remote,
	})

	assert.Len(t, list, 1)
	assert.Equal(t, remote, summary)
}

func TestUnify_EmptyInputMeansNoProblems(t *testing.T) {
	list, summary := problems.Unify(problems.Raw{})

	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.True(t, summary.IsZero())
}

func TestUnify_Idempotent(t *testing.T) {
	first, firstSummary := problems.Unify(problems.Raw{
		Error: &problems.LegacyError{Message: "Expression Error (Line 2): division by zero Expression: 10 / 0", Line: domain.IntPtr(2)},
	})

	second, secondSummary := problems.Unify(problems.Raw{Problems: first})
	assert.Equal(t, first, second)
	assert.Equal(t, firstSummary, secondSummary)

	// Re-deriving from the normalized record strips nothing further.
	again := problems.FromError(problems.LegacyError{
		Message:    first[0].Message,
		Line:       first[0].Line,
		Expression: first[0].Expression,
	})
	assert.Equal(t, first[0], again)
}

func TestSingle(t *testing.T) {
	list, summary := problems.Single(problems.LegacyError{Message: "boom"})

	require.Len(t, list, 1)
	assert.Equal(t, "boom", list[0].Message)
	assert.Equal(t, domain.Summary{TotalErrors: 1, TotalProblems: 1}, summary)
}
