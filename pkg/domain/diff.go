package domain

import (
	"reflect"
)

// ViewDiff represents the changes between two views.
// It is serialized to JSON for partial updates on streaming clients.
type ViewDiff struct {
	// Key identifies the workspace the view belongs to.
	Key string `json:"key"`

	Phase       *Phase        `json:"phase,omitempty"`
	Finished    *bool         `json:"finished,omitempty"`
	Cursor      *int          `json:"cursor,omitempty"`
	SessionID   *string       `json:"session_id,omitempty"`
	Busy        *bool         `json:"busy,omitempty"`
	ActiveTab   *InspectorTab `json:"active_tab,omitempty"`
	MemoryKB    *float64      `json:"memory_kb,omitempty"`
	Summary     *Summary      `json:"summary,omitempty"`
	InputPrompt *InputPrompt  `json:"input_prompt,omitempty"`

	// Output and Problems are replaced wholesale when they change.
	Output   []string  `json:"output,omitempty"`
	Problems []Problem `json:"problems,omitempty"`

	// Environment contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Environment map[string]any `json:"env,omitempty"`

	// Trace carries entries appended since the previous view.
	// When the trace was rewritten, TraceReset is set and Trace holds the full list.
	Trace      []any `json:"trace,omitempty"`
	TraceReset bool  `json:"trace_reset,omitempty"`
}

// Diff calculates the difference between oldView and newView.
// If oldView is nil, it returns a diff representing the entire newView (initial load).
func Diff(key string, oldView, newView *View) *ViewDiff {
	if newView == nil {
		return nil
	}
	if oldView == nil {
		empty := NewView()
		empty.Phase = ""
		empty.ActiveTab = ""
		oldView = &empty
	}

	diff := &ViewDiff{Key: key}

	if oldView.Phase != newView.Phase {
		diff.Phase = ptr(newView.Phase)
	}
	if oldView.Finished != newView.Finished {
		diff.Finished = ptr(newView.Finished)
	}
	if oldView.Cursor != newView.Cursor {
		diff.Cursor = ptr(newView.Cursor)
	}
	if oldView.SessionID != newView.SessionID {
		diff.SessionID = ptr(newView.SessionID)
	}
	if oldView.Busy != newView.Busy {
		diff.Busy = ptr(newView.Busy)
	}
	if oldView.ActiveTab != newView.ActiveTab {
		diff.ActiveTab = ptr(newView.ActiveTab)
	}
	if oldView.MemoryKB != newView.MemoryKB {
		diff.MemoryKB = ptr(newView.MemoryKB)
	}
	if oldView.Summary != newView.Summary {
		diff.Summary = ptr(newView.Summary)
	}
	if !reflect.DeepEqual(oldView.InputPrompt, newView.InputPrompt) {
		if newView.InputPrompt != nil {
			diff.InputPrompt = newView.InputPrompt
		} else {
			// Cleared prompt is sent as an empty prompt object.
			diff.InputPrompt = &InputPrompt{}
		}
	}
	if !sameSlice(oldView.Output, newView.Output) {
		diff.Output = append([]string{}, newView.Output...)
	}
	if !sameSlice(oldView.Problems, newView.Problems) {
		diff.Problems = append([]Problem{}, newView.Problems...)
	}

	diff.Environment = diffEnvironment(oldView.Environment, newView.Environment)
	diff.Trace, diff.TraceReset = diffTrace(oldView.Trace, newView.Trace)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffEnvironment(old, new map[string]any) map[string]any {
	delta := make(map[string]any)

	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffTrace assumes append-only traces and falls back to a full reset otherwise.
func diffTrace(old, new []any) ([]any, bool) {
	if len(new) >= len(old) && sameSlice(old, new[:len(old)]) {
		if len(new) == len(old) {
			return nil, false
		}
		return append([]any{}, new[len(old):]...), false
	}
	return append([]any{}, new...), true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ViewDiff) IsEmpty() bool {
	return d.Phase == nil &&
		d.Finished == nil &&
		d.Cursor == nil &&
		d.SessionID == nil &&
		d.Busy == nil &&
		d.ActiveTab == nil &&
		d.MemoryKB == nil &&
		d.Summary == nil &&
		d.InputPrompt == nil &&
		d.Output == nil &&
		d.Problems == nil &&
		len(d.Environment) == 0 &&
		d.Trace == nil &&
		!d.TraceReset
}

// sameSlice treats nil and empty slices as equal.
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func ptr[T any](v T) *T {
	return &v
}
