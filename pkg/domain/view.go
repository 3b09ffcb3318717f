package domain

import (
	"fmt"
	"time"
)

// InspectorTab is the hint for which panel a surface should bring to front.
type InspectorTab string

const (
	TabProblems  InspectorTab = "problems"
	TabOutput    InspectorTab = "output"
	TabDebug     InspectorTab = "debug"
	TabVariables InspectorTab = "variables"
	TabTimeline  InspectorTab = "timeline"
	TabDetail    InspectorTab = "detail"
	TabMemory    InspectorTab = "memory"
)

// Tabs lists every inspector tab in display order.
var Tabs = []InspectorTab{TabProblems, TabOutput, TabDebug, TabTimeline, TabDetail, TabMemory, TabVariables}

// ParseTab validates a tab name.
func ParseTab(name string) (InspectorTab, error) {
	for _, t := range Tabs {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTab, name)
}

// InputPrompt describes a pending input request.
type InputPrompt struct {
	Line    *int   `json:"line"`
	Message string `json:"message"`
}

// DefaultInputMessage is shown when the remote does not word the prompt itself.
const DefaultInputMessage = "Program is waiting for input"

// View is the flat read model a presentation surface renders from.
type View struct {
	ExecutionState

	Output      []string       `json:"output"`
	Environment map[string]any `json:"env"`
	Trace       []any          `json:"trace"`
	Detail      map[string]any `json:"detail"`
	MemoryKB    float64        `json:"memory_kb"`

	Problems []Problem `json:"problems"`
	Summary  Summary   `json:"summary"`

	// Busy is set for the duration of run, debug start and rerun calls.
	Busy bool `json:"busy"`

	InputPrompt *InputPrompt `json:"input_prompt,omitempty"`
	ActiveTab   InspectorTab `json:"active_tab"`

	// Epoch increments every time the controller leaves a session.
	// Responses issued under an older epoch are discarded.
	Epoch uint64 `json:"epoch"`
}

// NewView returns the initial, empty read model.
func NewView() View {
	return View{
		ExecutionState: NewExecutionState(),
		Output:         []string{},
		Environment:    map[string]any{},
		Trace:          []any{},
		Detail:         map[string]any{},
		Problems:       []Problem{},
		ActiveTab:      TabOutput,
	}
}

// Clone returns a deep copy so callers cannot mutate controller state.
func (v View) Clone() View {
	c := v
	c.Output = append([]string{}, v.Output...)
	c.Environment = CloneMap(v.Environment)
	c.Trace = cloneSlice(v.Trace)
	c.Detail = CloneMap(v.Detail)
	c.Problems = make([]Problem, len(v.Problems))
	for i, p := range v.Problems {
		if p.Line != nil {
			p.Line = IntPtr(*p.Line)
		}
		c.Problems[i] = p
	}
	if v.InputPrompt != nil {
		prompt := *v.InputPrompt
		if prompt.Line != nil {
			prompt.Line = IntPtr(*prompt.Line)
		}
		c.InputPrompt = &prompt
	}
	return c
}

// Snapshot is the persisted form of a controller.
type Snapshot struct {
	View    View      `json:"view"`
	SavedAt time.Time `json:"saved_at"`
}

// CloneMap deep-copies a JSON-like map. A nil map becomes an empty one.
func CloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		return cloneSlice(t)
	default:
		return v
	}
}
