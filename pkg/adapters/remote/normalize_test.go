package remote_test

import (
	"testing"

	"github.com/aretw0/ayr/pkg/adapters/remote"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRun_Defaults(t *testing.T) {
	res, err := remote.NormalizeRun(map[string]any{})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.NotNil(t, res.Output)
	assert.NotNil(t, res.Environment)
	assert.NotNil(t, res.Trace)
	assert.NotNil(t, res.Problems)
	assert.NotNil(t, res.Detail)
	assert.False(t, res.NeedsInput)
	assert.Nil(t, res.InputLine)
	assert.Zero(t, res.MemoryKB)
	assert.True(t, res.Summary.IsZero())
}

func TestNormalize_TotalForPartialBodies(t *testing.T) {
	nullBody := map[string]any{}
	for _, key := range []string{
		"success", "output", "env", "environment", "trace", "detail", "state_info",
		"memory_kb", "memoryKB", "problems", "summary", "errors", "warnings", "bugs",
		"error", "line", "expression", "needs_input", "need_input", "message",
		"session_id", "pc", "cursor", "done", "finished",
	} {
		nullBody[key] = nil
	}

	bodies := map[string]map[string]any{
		"Empty":          {},
		"Explicit nulls": nullBody,
		"Only success":   {"success": true},
		"Only output":    {"output": []any{"10"}},
		"Only env":       {"env": map[string]any{"x": float64(1)}},
		"Only summary":   {"summary": map[string]any{"total_errors": float64(1)}},
		"Only session":   {"session_id": "s-1", "pc": float64(2)},
		"Mixed output":   {"output": []any{"a", float64(1), true, nil, []any{float64(1)}}},
	}

	for name, body := range bodies {
		t.Run("Run/"+name, func(t *testing.T) {
			res, err := remote.NormalizeRun(body)
			require.NoError(t, err)
			assert.NotNil(t, res.Output)
			assert.NotNil(t, res.Environment)
			assert.NotNil(t, res.Trace)
			assert.NotNil(t, res.Detail)
			assert.NotNil(t, res.Problems)
			assert.False(t, res.NeedsInput)
		})
		t.Run("Debug/"+name, func(t *testing.T) {
			res, err := remote.NormalizeDebug(body)
			require.NoError(t, err)
			assert.NotNil(t, res.Output)
			assert.NotNil(t, res.Environment)
			assert.NotNil(t, res.Trace)
			assert.NotNil(t, res.Detail)
			assert.False(t, res.Done)
			assert.Nil(t, res.Error)
		})
	}
}

func TestNormalize_PrintedValues(t *testing.T) {
	body := map[string]any{
		"success": true,
		"output": []any{
			"10", float64(2.5), float64(3), true, false, nil,
			[]any{float64(1), float64(2)},
			map[string]any{"a": float64(1)},
		},
	}
	want := []string{"10", "2.5", "3", "True", "False", "None", "[1,2]", `{"a":1}`}

	run, err := remote.NormalizeRun(body)
	require.NoError(t, err)
	assert.True(t, run.Success)
	assert.Equal(t, want, run.Output)
	assert.Empty(t, run.Problems)

	debug, err := remote.NormalizeDebug(body)
	require.NoError(t, err)
	assert.Equal(t, want, debug.Output)
}

func TestNormalizeRun_StructuredProblems(t *testing.T) {
	res, err := remote.NormalizeRun(map[string]any{
		"success": false,
		"output":  []any{},
		"problems": []any{
			map[string]any{"kind": "error", "title": "Expression Error (Line 2):", "message": "division by zero", "line": float64(2), "expression": nil},
		},
		"errors":    []any{map[string]any{"message": "division by zero"}},
		"warnings":  []any{},
		"summary":   map[string]any{"total_errors": float64(1), "total_warnings": float64(0), "total_bugs": float64(0), "total_problems": float64(1)},
		"env":       map[string]any{"x": float64(10)},
		"trace":     []any{"x = 10"},
		"detail":    map[string]any{"state_info": map[string]any{"snapshots": float64(1)}},
		"memory_kb": 1.5,
	})
	require.NoError(t, err)

	require.Len(t, res.Problems, 1)
	assert.Equal(t, "division by zero", res.Problems[0].Message)
	require.NotNil(t, res.Problems[0].Line)
	assert.Equal(t, 2, *res.Problems[0].Line)
	assert.Equal(t, domain.Summary{TotalErrors: 1, TotalProblems: 1}, res.Summary)
	assert.Equal(t, float64(10), res.Environment["x"])
	assert.Equal(t, []any{"x = 10"}, res.Trace)
	assert.Equal(t, 1.5, res.MemoryKB)
	assert.Contains(t, res.Detail, domain.StateInfoKey)
}

func TestNormalizeRun_InputSpellings(t *testing.T) {
	for _, key := range []string{"needs_input", "need_input"} {
		t.Run(key, func(t *testing.T) {
			res, err := remote.NormalizeRun(map[string]any{
				"success":    false,
				key:          true,
				"session_id": "s-1",
				"line":       float64(3),
				"output":     []any{"hello"},
			})
			require.NoError(t, err)

			assert.True(t, res.NeedsInput)
			assert.Equal(t, "s-1", res.SessionID)
			require.NotNil(t, res.InputLine)
			assert.Equal(t, 3, *res.InputLine)
			assert.Equal(t, []string{"hello"}, res.Output)
		})
	}
}

func TestNormalizeRun_LegacyErrorString(t *testing.T) {
	res, err := remote.NormalizeRun(map[string]any{
		"success": false,
		"error":   "Expression Error (Line 4): Expression: x+1 failed",
		"line":    float64(4),
		"output":  []any{"partial"},
	})
	require.NoError(t, err)

	require.Len(t, res.Problems, 1)
	assert.Equal(t, "Expression Error (Line 4):", res.Problems[0].Title)
	assert.Equal(t, "x+1 failed", res.Problems[0].Expression)
	assert.Equal(t, domain.Summary{TotalErrors: 1, TotalProblems: 1}, res.Summary)
	assert.Equal(t, []string{"partial"}, res.Output)
}

func TestNormalizeRun_FrameworkDetailString(t *testing.T) {
	res, err := remote.NormalizeRun(map[string]any{"detail": "Session not found"})
	require.NoError(t, err)

	require.Len(t, res.Problems, 1)
	assert.Equal(t, "Session not found", res.Problems[0].Message)
	assert.Empty(t, res.Detail)
}

func TestNormalizeRun_WeakTypes(t *testing.T) {
	res, err := remote.NormalizeRun(map[string]any{
		"success":   "true",
		"memory_kb": "2.25",
		"output":    []any{float64(10), "x"},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 2.25, res.MemoryKB)
	assert.Equal(t, []string{"10", "x"}, res.Output)
}

func TestNormalizeDebug(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]any
		check func(t *testing.T, res domain.DebugResult)
	}{
		{
			name: "Done",
			body: map[string]any{"success": true, "done": true, "pc": float64(5), "session_id": "s-1"},
			check: func(t *testing.T, res domain.DebugResult) {
				assert.True(t, res.Done)
				assert.Equal(t, 5, res.Cursor)
				assert.Nil(t, res.Error)
			},
		},
		{
			name: "Finished spelling and cursor alias",
			body: map[string]any{"finished": true, "cursor": float64(2)},
			check: func(t *testing.T, res domain.DebugResult) {
				assert.True(t, res.Done)
				assert.Equal(t, 2, res.Cursor)
			},
		},
		{
			name: "Error with line and expression beside it",
			body: map[string]any{
				"success": false, "done": false, "session_id": "s-1",
				"error": "division by zero", "line": float64(2), "expression": "10 / 0",
				"output": []any{"10"},
			},
			check: func(t *testing.T, res domain.DebugResult) {
				require.NotNil(t, res.Error)
				assert.Equal(t, "division by zero", res.Error.Message)
				require.NotNil(t, res.Error.Line)
				assert.Equal(t, 2, *res.Error.Line)
				assert.Equal(t, "10 / 0", res.Error.Expression)
				assert.Equal(t, []string{"10"}, res.Output)
			},
		},
		{
			name: "Error object",
			body: map[string]any{"error": map[string]any{"message": "boom", "line": float64(7)}},
			check: func(t *testing.T, res domain.DebugResult) {
				require.NotNil(t, res.Error)
				assert.Equal(t, "boom", res.Error.Message)
				assert.Equal(t, 7, *res.Error.Line)
			},
		},
		{
			name: "Null error",
			body: map[string]any{"success": true, "error": nil, "line": nil, "expression": nil},
			check: func(t *testing.T, res domain.DebugResult) {
				assert.Nil(t, res.Error)
			},
		},
		{
			name: "Top level state_info folded into detail",
			body: map[string]any{"state_info": "3 snapshots", "environment": map[string]any{"a": float64(1)}, "memoryKB": float64(4)},
			check: func(t *testing.T, res domain.DebugResult) {
				assert.Equal(t, "3 snapshots", res.Detail[domain.StateInfoKey])
				assert.Equal(t, float64(1), res.Environment["a"])
				assert.Equal(t, float64(4), res.MemoryKB)
			},
		},
		{
			name: "Missing fields default",
			body: map[string]any{},
			check: func(t *testing.T, res domain.DebugResult) {
				assert.NotNil(t, res.Environment)
				assert.NotNil(t, res.Trace)
				assert.NotNil(t, res.Output)
				assert.NotNil(t, res.Detail)
				assert.False(t, res.Success)
				assert.False(t, res.Done)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := remote.NormalizeDebug(tt.body)
			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}

func TestNormalizeDebug_UndecodableShape(t *testing.T) {
	_, err := remote.NormalizeDebug(map[string]any{"env": "not an object"})
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestNormalizeBack(t *testing.T) {
	t.Run("Bare environment", func(t *testing.T) {
		res, err := remote.NormalizeBack(map[string]any{"x": float64(1), "y": "two"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": float64(1), "y": "two"}, res.Environment)
		assert.Empty(t, res.Output)
		assert.Empty(t, res.Trace)
	})

	t.Run("Variables named like response fields", func(t *testing.T) {
		bodies := []map[string]any{
			{"x": float64(1), "output": float64(5)},
			{"total": float64(3), "done": "yes"},
			{"pc": "counter", "trace": float64(0), "error": true},
			{"success": "maybe", "env": "prod"},
		}
		for _, body := range bodies {
			res, err := remote.NormalizeBack(body)
			require.NoError(t, err)
			assert.Equal(t, body, res.Environment)
			assert.True(t, res.Success)
			assert.Empty(t, res.Output)
		}
	})

	t.Run("Structured by success flag", func(t *testing.T) {
		res, err := remote.NormalizeBack(map[string]any{"success": true, "trace": []any{"x = 1"}})
		require.NoError(t, err)
		assert.Empty(t, res.Environment)
		assert.Equal(t, []any{"x = 1"}, res.Trace)
	})

	t.Run("Structured", func(t *testing.T) {
		res, err := remote.NormalizeBack(map[string]any{
			"env":       map[string]any{"x": float64(1)},
			"trace":     []any{"x = 1"},
			"memory_kb": float64(3),
			"detail":    map[string]any{"state_info": "at 1"},
		})
		require.NoError(t, err)
		assert.Equal(t, float64(1), res.Environment["x"])
		assert.Equal(t, []any{"x = 1"}, res.Trace)
		assert.Equal(t, float64(3), res.MemoryKB)
		assert.Equal(t, "at 1", res.Detail[domain.StateInfoKey])
	})
}
