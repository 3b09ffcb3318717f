package domain

// Mode is the coarse execution mode exposed to presentation surfaces.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeRunning   Mode = "running"
	ModeDebugging Mode = "debugging"
)

// Phase is the fine-grained position of the controller state machine.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseRunning       Phase = "running"        // Transient, only while a run call is in flight
	PhaseAwaitingInput Phase = "awaiting_input" // Run paused at an input prompt, session held
	PhaseDebugStarting Phase = "debug_starting" // Between create-session and the first run-forward
	PhaseDebugActive   Phase = "debug_active"
	PhaseDebugFinished Phase = "debug_finished" // Terminal for the session
)

// Mode derives the coarse mode from the phase.
func (p Phase) Mode() Mode {
	switch p {
	case PhaseRunning, PhaseAwaitingInput:
		return ModeRunning
	case PhaseDebugStarting, PhaseDebugActive, PhaseDebugFinished:
		return ModeDebugging
	default:
		return ModeIdle
	}
}

// IsDebug reports whether the phase belongs to a debug session.
func (p Phase) IsDebug() bool {
	return p.Mode() == ModeDebugging
}

// ExecutionState is the state machine part of the read model.
type ExecutionState struct {
	Mode  Mode  `json:"mode"`
	Phase Phase `json:"phase"`

	// Finished is set once the remote reports done=true for the session.
	Finished bool `json:"finished"`

	// Cursor is the server-side program counter of the time-travel history.
	Cursor int `json:"cursor"`

	// SessionID is the opaque handle issued by the remote service.
	// Empty when no session is held.
	SessionID string `json:"session_id,omitempty"`

	// DebugKey scopes a debug session to a source buffer.
	DebugKey string `json:"debug_key,omitempty"`

	// AwaitingInput is true while the program is paused at an input prompt.
	AwaitingInput bool `json:"awaiting_input"`
}

// NewExecutionState returns the initial idle state.
func NewExecutionState() ExecutionState {
	return ExecutionState{
		Mode:  ModeIdle,
		Phase: PhaseIdle,
	}
}

// HasSession reports whether a session handle is held.
func (s ExecutionState) HasSession() bool {
	return s.SessionID != ""
}
