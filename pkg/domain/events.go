package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventRemoteCall EventType = "remote_call"
)

// CallOutcome classifies how a remote call ended.
type CallOutcome string

const (
	OutcomeOK        CallOutcome = "ok"
	OutcomeFailure   CallOutcome = "business_failure" // success=false inside a decoded body
	OutcomeTransport CallOutcome = "transport_error"
	OutcomeStale     CallOutcome = "stale" // applied nowhere, a newer action superseded it
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// TransitionEvent is emitted when the controller changes phase or re-enters one.
type TransitionEvent struct {
	EventBase
	Action  string       `json:"action"`
	From    Phase        `json:"from"`
	To      Phase        `json:"to"`
	Tab     InspectorTab `json:"tab"`
	Summary Summary      `json:"summary"`
}

// CallEvent is emitted after every remote call.
type CallEvent struct {
	EventBase
	Op       string        `json:"op"`
	Outcome  CallOutcome   `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnRemoteCall func(context.Context, *CallEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: func(ctx context.Context, e *TransitionEvent) {
			if h.OnTransition != nil {
				h.OnTransition(ctx, e)
			}
			if other.OnTransition != nil {
				other.OnTransition(ctx, e)
			}
		},
		OnRemoteCall: func(ctx context.Context, e *CallEvent) {
			if h.OnRemoteCall != nil {
				h.OnRemoteCall(ctx, e)
			}
			if other.OnRemoteCall != nil {
				other.OnRemoteCall(ctx, e)
			}
		},
	}
}
