package domain

// RunResult is the normalized response of the run and input endpoints.
// Every field is present: lists default to empty, maps to empty, numbers to zero.
type RunResult struct {
	Success     bool           `json:"success"`
	Output      []string       `json:"output"`
	Environment map[string]any `json:"env"`
	Trace       []any          `json:"trace"`
	Problems    []Problem      `json:"problems"`
	Summary     Summary        `json:"summary"`
	NeedsInput  bool           `json:"needs_input"`
	InputLine   *int           `json:"line,omitempty"`
	MemoryKB    float64        `json:"memory_kb"`
	Detail      map[string]any `json:"detail"`

	// SessionID is set when the run paused for input and the remote kept the session.
	SessionID string `json:"session_id,omitempty"`

	// Message is the optional human readable status (e.g. the input prompt text).
	Message string `json:"message,omitempty"`
}

// DebugError is the single error a debug call may stop at.
type DebugError struct {
	Message    string `json:"message"`
	Line       *int   `json:"line"`
	Expression string `json:"expression,omitempty"`
}

// DebugResult is the normalized response of the debug, next-error, step and back endpoints.
type DebugResult struct {
	Success     bool           `json:"success"`
	Done        bool           `json:"done"`
	NeedsInput  bool           `json:"needs_input"`
	Cursor      int            `json:"pc"`
	SessionID   string         `json:"session_id,omitempty"`
	Environment map[string]any `json:"env"`
	Trace       []any          `json:"trace"`
	Output      []string       `json:"output"`
	Detail      map[string]any `json:"detail"`
	MemoryKB    float64        `json:"memory_kb"`
	Error       *DebugError    `json:"error,omitempty"`
}

// StateInfoKey is the detail sub-field that step and back carry forward explicitly.
const StateInfoKey = "state_info"

// NewRunResult returns a RunResult with every collection initialized.
func NewRunResult() RunResult {
	return RunResult{
		Output:      []string{},
		Environment: map[string]any{},
		Trace:       []any{},
		Problems:    []Problem{},
		Detail:      map[string]any{},
	}
}

// NewDebugResult returns a DebugResult with every collection initialized.
func NewDebugResult() DebugResult {
	return DebugResult{
		Environment: map[string]any{},
		Trace:       []any{},
		Output:      []string{},
		Detail:      map[string]any{},
	}
}

// InvalidResponseMessage is the problem message used when the runtime could not be
// reached or answered with something that is not a JSON object.
const InvalidResponseMessage = "Invalid response from runtime"
