package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugView(cursor int, trace ...any) *View {
	v := NewView()
	v.Phase = PhaseDebugActive
	v.Mode = ModeDebugging
	v.SessionID = "s-1"
	v.Cursor = cursor
	v.Environment = map[string]any{"x": 10}
	v.Trace = trace
	return &v
}

func TestDiff(t *testing.T) {
	line := 3

	tests := []struct {
		name  string
		old   *View
		new   *View
		check func(t *testing.T, d *ViewDiff)
	}{
		{
			name: "initial load carries everything",
			old:  nil,
			new:  debugView(1, "line 1"),
			check: func(t *testing.T, d *ViewDiff) {
				require.NotNil(t, d)
				assert.Equal(t, "w", d.Key)
				assert.Equal(t, PhaseDebugActive, *d.Phase)
				assert.Equal(t, 1, *d.Cursor)
				assert.Equal(t, "s-1", *d.SessionID)
				assert.Equal(t, TabOutput, *d.ActiveTab)
				assert.Equal(t, map[string]any{"x": 10}, d.Environment)
				assert.Equal(t, []any{"line 1"}, d.Trace)
				assert.False(t, d.TraceReset)
			},
		},
		{
			name: "no changes",
			old:  debugView(1, "line 1"),
			new:  debugView(1, "line 1"),
			check: func(t *testing.T, d *ViewDiff) {
				assert.Nil(t, d)
			},
		},
		{
			name: "step appends trace and moves cursor",
			old:  debugView(1, "line 1"),
			new:  debugView(2, "line 1", "line 2"),
			check: func(t *testing.T, d *ViewDiff) {
				require.NotNil(t, d)
				assert.Equal(t, 2, *d.Cursor)
				assert.Equal(t, []any{"line 2"}, d.Trace)
				assert.False(t, d.TraceReset)
				assert.Nil(t, d.Phase)
				assert.Empty(t, d.Environment)
			},
		},
		{
			name: "rewritten trace resets",
			old:  debugView(2, "line 1", "line 2"),
			new:  debugView(1, "line 5"),
			check: func(t *testing.T, d *ViewDiff) {
				require.NotNil(t, d)
				assert.True(t, d.TraceReset)
				assert.Equal(t, []any{"line 5"}, d.Trace)
			},
		},
		{
			name: "problems and summary replace wholesale",
			old:  debugView(1),
			new: func() *View {
				v := debugView(1)
				v.Problems = []Problem{{Kind: KindError, Title: "ZeroDivisionError", Line: &line}}
				v.Summary = Summary{TotalErrors: 1, TotalProblems: 1}
				return v
			}(),
			check: func(t *testing.T, d *ViewDiff) {
				require.NotNil(t, d)
				require.Len(t, d.Problems, 1)
				assert.Equal(t, "ZeroDivisionError", d.Problems[0].Title)
				assert.Equal(t, 1, d.Summary.TotalErrors)
			},
		},
		{
			name: "cleared prompt is sent as empty object",
			old: func() *View {
				v := NewView()
				v.Phase = PhaseAwaitingInput
				v.AwaitingInput = true
				v.InputPrompt = &InputPrompt{Line: &line, Message: "name?"}
				return &v
			}(),
			new: func() *View {
				v := NewView()
				v.Output = []string{"hi"}
				return &v
			}(),
			check: func(t *testing.T, d *ViewDiff) {
				require.NotNil(t, d)
				assert.Equal(t, PhaseIdle, *d.Phase)
				assert.Equal(t, &InputPrompt{}, d.InputPrompt)
				assert.Equal(t, []string{"hi"}, d.Output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Diff("w", tt.old, tt.new))
		})
	}
}

func TestDiff_NilNewView(t *testing.T) {
	assert.Nil(t, Diff("w", debugView(1), nil))
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("unchanged environment omitted", func(t *testing.T) {
		old := debugView(1)
		new := debugView(2)
		diff := Diff("w", old, new)
		require.NotNil(t, diff)

		bytes, err := json.Marshal(diff)
		require.NoError(t, err)
		assert.NotContains(t, string(bytes), `"env"`)
	})

	t.Run("deletions as null", func(t *testing.T) {
		old := debugView(1)
		old.Environment = map[string]any{"a": 1, "b": 2}
		new := debugView(1)
		new.Environment = map[string]any{"a": 1}

		diff := Diff("w", old, new)
		require.NotNil(t, diff)

		bytes, err := json.Marshal(diff)
		require.NoError(t, err)
		assert.Contains(t, string(bytes), `"b":null`)
	})
}
