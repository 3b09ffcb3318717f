package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ayr/internal/logging"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/ports"
)

// Controller is the session state machine that drives the remote runtime.
//
// It holds the only copy of the session handle and the read model. The mutex guards
// state only and is released before every remote call; a single in-flight flag keeps
// calls from overlapping, and an epoch discards responses that arrive after the user
// moved on (new run, new debug start or reset).
type Controller struct {
	transport ports.Transport
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	now       func() time.Time

	mu       sync.Mutex
	view     domain.View
	inflight bool
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) ControllerOption {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithSnapshot starts the controller from a persisted snapshot instead of idle.
func WithSnapshot(snapshot *domain.Snapshot) ControllerOption {
	return func(c *Controller) {
		if snapshot != nil {
			c.view = restoredView(snapshot.View)
		}
	}
}

// WithClock overrides the time source used for event timestamps and snapshots.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates an idle controller talking through the given transport.
func NewController(transport ports.Transport, opts ...ControllerOption) *Controller {
	c := &Controller{
		transport: transport,
		logger:    logging.NewNop(),
		now:       time.Now,
		view:      domain.NewView(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View returns a deep copy of the read model.
func (c *Controller) View() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Clone()
}

// Snapshot returns the persistable form of the controller.
func (c *Controller) Snapshot() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &domain.Snapshot{View: c.view.Clone(), SavedAt: c.now()}
}

// Restore replaces the read model with a persisted one.
// Transient phases cannot survive a restart and are settled first.
func (c *Controller) Restore(snapshot *domain.Snapshot) {
	if snapshot == nil {
		return
	}
	c.mu.Lock()
	from := c.view.Phase
	epoch := c.view.Epoch
	c.view = restoredView(snapshot.View)
	if c.view.Epoch < epoch {
		c.view.Epoch = epoch
	}
	ev := c.transitionEvent("restore", from)
	c.mu.Unlock()
	c.emitTransition(context.Background(), ev)
}

func restoredView(v domain.View) domain.View {
	v = v.Clone()
	v.Busy = false
	switch v.Phase {
	case domain.PhaseRunning:
		v.Phase = domain.PhaseIdle
	case domain.PhaseDebugStarting:
		if v.SessionID != "" {
			v.Phase = domain.PhaseDebugActive
		} else {
			v.Phase = domain.PhaseIdle
		}
	case "":
		v.Phase = domain.PhaseIdle
	}
	if v.Phase == domain.PhaseIdle {
		v.SessionID = ""
		v.AwaitingInput = false
		v.InputPrompt = nil
	}
	v.Mode = v.Phase.Mode()
	if v.ActiveTab == "" {
		v.ActiveTab = domain.TabOutput
	}
	return v
}

// Run executes the whole source. Any held session is discarded first.
func (c *Controller) Run(ctx context.Context, source string) error {
	epoch, ok, err := c.begin(ctx, "run", true, nil, func(v *domain.View) {
		clearSession(v)
		v.Phase = domain.PhaseRunning
		v.Busy = true
	})
	if err != nil || !ok {
		return err
	}

	start := c.now()
	res := c.transport.Run(ctx, source)
	c.finish(ctx, "run", epoch, start, runOutcome(res), nil, func(v *domain.View) {
		c.logSummaryDrift(res)
		applyRun(v, res)
	})
	return nil
}

// StartDebug discards any session, creates a debug session scoped to debugKey and
// immediately runs it forward to the first error.
func (c *Controller) StartDebug(ctx context.Context, debugKey, source string) error {
	epoch, ok, err := c.begin(ctx, "debug", true, nil, func(v *domain.View) {
		clearSession(v)
		v.DebugKey = debugKey
		v.Phase = domain.PhaseDebugStarting
		v.Busy = true
	})
	if err != nil || !ok {
		return err
	}

	start := c.now()
	created := c.transport.StartDebug(ctx, source, debugKey)
	if created.SessionID == "" {
		c.finish(ctx, "debug", epoch, start, debugOutcome(created), nil, func(v *domain.View) {
			applyDebugStartFailure(v, created)
		})
		return nil
	}

	// The session exists now: record it but stay busy for the run-forward.
	if !c.apply(ctx, "debug", epoch, start, debugOutcome(created), func(v *domain.View) {
		applyDebugCreated(v, created)
	}) {
		return nil
	}

	start = c.now()
	res := c.transport.RunToNextError(ctx, created.SessionID, debugKey)
	c.finish(ctx, "next_error", epoch, start, debugOutcome(res), nil, func(v *domain.View) {
		applyNextError(v, res)
	})
	return nil
}

// RerunToNextError continues the debug session to the next error not reported yet.
// Outside an active, unfinished session it does nothing.
func (c *Controller) RerunToNextError(ctx context.Context) error {
	var sessionID, debugKey string
	epoch, ok, err := c.begin(ctx, "next_error", false, func(v *domain.View) bool {
		sessionID, debugKey = v.SessionID, v.DebugKey
		return v.Phase == domain.PhaseDebugActive && !v.Finished && sessionID != "" && debugKey != ""
	}, func(v *domain.View) {
		v.Busy = true
	})
	if err != nil || !ok {
		return err
	}

	start := c.now()
	res := c.transport.RunToNextError(ctx, sessionID, debugKey)
	c.finish(ctx, "next_error", epoch, start, debugOutcome(res), nil, func(v *domain.View) {
		applyNextError(v, res)
	})
	return nil
}

// Step executes one statement of the active debug session.
// It is a silent no-op while another call is in flight or outside debug_active.
// Transport errors are returned and leave the state untouched.
func (c *Controller) Step(ctx context.Context) error {
	return c.navigate(ctx, "step", c.transport.Step, applyStep)
}

// Back moves the active debug session one snapshot back.
// Only the environment, trace, memory and detail.state_info change.
func (c *Controller) Back(ctx context.Context) error {
	return c.navigate(ctx, "back", c.transport.Back, applyBack)
}

func (c *Controller) navigate(
	ctx context.Context,
	op string,
	call func(context.Context, string) (domain.DebugResult, error),
	apply func(*domain.View, domain.DebugResult),
) error {
	var sessionID string
	c.mu.Lock()
	if c.inflight || c.view.Phase != domain.PhaseDebugActive || c.view.Finished || c.view.AwaitingInput || c.view.SessionID == "" {
		c.logger.Debug("action ignored", "action", op, "phase", c.view.Phase, "busy", c.inflight)
		c.mu.Unlock()
		return nil
	}
	c.inflight = true
	sessionID = c.view.SessionID
	epoch := c.view.Epoch
	c.mu.Unlock()

	start := c.now()
	res, err := call(ctx, sessionID)
	if err != nil {
		c.finish(ctx, op, epoch, start, domain.OutcomeTransport, err, nil)
		return err
	}
	c.finish(ctx, op, epoch, start, debugOutcome(res), nil, func(v *domain.View) {
		apply(v, res)
	})
	return nil
}

// SubmitInput answers the pending input prompt. The value is sanitized first.
// Without a pending prompt it does nothing.
func (c *Controller) SubmitInput(ctx context.Context, value string) error {
	clean, err := SanitizeInput(value)
	if err != nil {
		return err
	}

	var sessionID string
	epoch, ok, err := c.begin(ctx, "input", false, func(v *domain.View) bool {
		sessionID = v.SessionID
		return v.AwaitingInput && sessionID != ""
	}, nil)
	if err != nil || !ok {
		return err
	}

	start := c.now()
	res := c.transport.SubmitInput(ctx, sessionID, clean)
	c.finish(ctx, "input", epoch, start, runOutcome(res), nil, func(v *domain.View) {
		if v.Phase.IsDebug() {
			applyDebugInput(v, res)
			return
		}
		c.logSummaryDrift(res)
		applyRun(v, res)
	})
	return nil
}

// Refresh re-reads the environment and detail of the held session.
// Without a session it does nothing.
func (c *Controller) Refresh(ctx context.Context) error {
	var sessionID string
	epoch, ok, err := c.begin(ctx, "refresh", false, func(v *domain.View) bool {
		sessionID = v.SessionID
		return sessionID != ""
	}, nil)
	if err != nil || !ok {
		return err
	}

	start := c.now()
	env, err := c.transport.Env(ctx, sessionID)
	if err != nil {
		c.finish(ctx, "env", epoch, start, domain.OutcomeTransport, err, nil)
		return err
	}
	if !c.apply(ctx, "env", epoch, start, domain.OutcomeOK, func(v *domain.View) {
		v.Environment = domain.CloneMap(env)
	}) {
		return nil
	}

	start = c.now()
	detail, err := c.transport.Detail(ctx, sessionID)
	if err != nil {
		c.finish(ctx, "detail", epoch, start, domain.OutcomeTransport, err, nil)
		return err
	}
	c.finish(ctx, "detail", epoch, start, domain.OutcomeOK, nil, func(v *domain.View) {
		mergeDetail(v, detail)
	})
	return nil
}

// Reset leaves any session and returns to idle, as when the source file changes.
// A call still in flight completes but its response is discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	from := c.view.Phase
	c.view.Epoch++
	clearSession(&c.view)
	c.view.Busy = false
	c.view.ActiveTab = domain.TabOutput
	ev := c.transitionEvent("reset", from)
	c.mu.Unlock()
	c.emitTransition(context.Background(), ev)
}

// SetActiveTab brings an inspector tab to front.
func (c *Controller) SetActiveTab(name string) error {
	tab, err := domain.ParseTab(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.view.ActiveTab = tab
	c.mu.Unlock()
	return nil
}

// Busy reports whether a remote call is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

// begin checks the busy gate and the precondition, then marks the call in flight.
// It returns ok=false for a guarded no-op.
func (c *Controller) begin(
	ctx context.Context,
	action string,
	newEpoch bool,
	precondition func(*domain.View) bool,
	mutate func(*domain.View),
) (uint64, bool, error) {
	c.mu.Lock()
	if c.inflight {
		c.mu.Unlock()
		return 0, false, domain.ErrBusy
	}
	if precondition != nil && !precondition(&c.view) {
		c.logger.Debug("action ignored", "action", action, "phase", c.view.Phase)
		c.mu.Unlock()
		return 0, false, nil
	}

	from := c.view.Phase
	c.inflight = true
	if newEpoch {
		c.view.Epoch++
	}
	var ev *domain.TransitionEvent
	if mutate != nil {
		mutate(&c.view)
		c.view.Mode = c.view.Phase.Mode()
		ev = c.transitionEvent(action, from)
	}
	epoch := c.view.Epoch
	c.mu.Unlock()

	if ev != nil {
		c.emitTransition(ctx, ev)
	}
	return epoch, true, nil
}

// apply records an intermediate response without ending the in-flight call.
// It returns false when the response is stale, in which case the call is over.
func (c *Controller) apply(ctx context.Context, op string, epoch uint64, start time.Time, outcome domain.CallOutcome, mutate func(*domain.View)) bool {
	c.mu.Lock()
	if c.view.Epoch != epoch {
		c.inflight = false
		sessionID := c.view.SessionID
		c.mu.Unlock()
		c.logger.Info("stale response discarded", "op", op, "epoch", epoch)
		c.emitCall(ctx, op, sessionID, start, domain.OutcomeStale, nil)
		return false
	}
	from := c.view.Phase
	mutate(&c.view)
	c.view.Mode = c.view.Phase.Mode()
	ev := c.transitionEvent(op, from)
	sessionID := c.view.SessionID
	c.mu.Unlock()

	c.emitCall(ctx, op, sessionID, start, outcome, nil)
	c.emitTransition(ctx, ev)
	return true
}

// finish ends the in-flight call. A nil mutate only clears the busy state.
func (c *Controller) finish(ctx context.Context, op string, epoch uint64, start time.Time, outcome domain.CallOutcome, callErr error, mutate func(*domain.View)) {
	c.mu.Lock()
	c.inflight = false
	if c.view.Epoch != epoch {
		sessionID := c.view.SessionID
		c.mu.Unlock()
		c.logger.Info("stale response discarded", "op", op, "epoch", epoch)
		c.emitCall(ctx, op, sessionID, start, domain.OutcomeStale, callErr)
		return
	}

	from := c.view.Phase
	c.view.Busy = false
	var ev *domain.TransitionEvent
	if mutate != nil {
		mutate(&c.view)
		c.view.Mode = c.view.Phase.Mode()
		ev = c.transitionEvent(op, from)
	} else if c.view.Phase == domain.PhaseRunning || c.view.Phase == domain.PhaseDebugStarting {
		// A call that failed before producing anything settles the transient phase.
		clearSession(&c.view)
		c.view.Mode = c.view.Phase.Mode()
		ev = c.transitionEvent(op, from)
	}
	sessionID := c.view.SessionID
	c.mu.Unlock()

	if callErr != nil {
		c.logger.Warn("runtime call failed", "op", op, "session_id", sessionID, "err", callErr)
	}
	c.emitCall(ctx, op, sessionID, start, outcome, callErr)
	if ev != nil {
		c.emitTransition(ctx, ev)
	}
}

// transitionEvent must be called with the mutex held.
func (c *Controller) transitionEvent(action string, from domain.Phase) *domain.TransitionEvent {
	return &domain.TransitionEvent{
		EventBase: domain.EventBase{
			Timestamp: c.now(),
			Type:      domain.EventTransition,
			SessionID: c.view.SessionID,
		},
		Action:  action,
		From:    from,
		To:      c.view.Phase,
		Tab:     c.view.ActiveTab,
		Summary: c.view.Summary,
	}
}

func (c *Controller) emitTransition(ctx context.Context, ev *domain.TransitionEvent) {
	c.logger.Debug("transition", "action", ev.Action, "from", ev.From, "phase", ev.To, "session_id", ev.SessionID)
	if c.hooks.OnTransition != nil {
		c.hooks.OnTransition(ctx, ev)
	}
}

func (c *Controller) emitCall(ctx context.Context, op, sessionID string, start time.Time, outcome domain.CallOutcome, err error) {
	if c.hooks.OnRemoteCall == nil {
		return
	}
	c.hooks.OnRemoteCall(ctx, &domain.CallEvent{
		EventBase: domain.EventBase{
			Timestamp: c.now(),
			Type:      domain.EventRemoteCall,
			SessionID: sessionID,
		},
		Op:       op,
		Outcome:  outcome,
		Duration: c.now().Sub(start),
		Err:      err,
	})
}
