package runtime

import (
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/problems"
)

// The functions below are the pure state transitions of the controller.
// Each one receives the view with the mutex held and mutates it in place.

// clearSession drops the session and everything derived from it.
// The active tab, the epoch and the busy flag are left alone.
func clearSession(v *domain.View) {
	v.ExecutionState = domain.NewExecutionState()
	v.Output = []string{}
	v.Environment = map[string]any{}
	v.Trace = []any{}
	v.Detail = map[string]any{}
	v.MemoryKB = 0
	clearProblems(v)
	v.InputPrompt = nil
}

func clearProblems(v *domain.View) {
	v.Problems = []domain.Problem{}
	v.Summary = domain.Summary{}
}

func setProblems(v *domain.View, list []domain.Problem, summary domain.Summary) {
	v.Problems = append([]domain.Problem{}, list...)
	v.Summary = summary
}

func waitForInput(v *domain.View, line *int, message string) {
	if message == "" {
		message = domain.DefaultInputMessage
	}
	var l *int
	if line != nil {
		l = domain.IntPtr(*line)
	}
	v.AwaitingInput = true
	v.InputPrompt = &domain.InputPrompt{Line: l, Message: message}
}

func stopWaiting(v *domain.View) {
	v.AwaitingInput = false
	v.InputPrompt = nil
}

// applyRun settles a run (or a run-mode input answer) into exactly one of three
// displays: the output, the problems or the input prompt.
func applyRun(v *domain.View, res domain.RunResult) {
	v.Environment = res.Environment
	v.Trace = res.Trace
	v.Detail = res.Detail
	v.MemoryKB = res.MemoryKB
	stopWaiting(v)

	switch {
	case res.NeedsInput:
		v.Phase = domain.PhaseAwaitingInput
		if res.SessionID != "" {
			v.SessionID = res.SessionID
		}
		v.Output = res.Output
		clearProblems(v)
		waitForInput(v, res.InputLine, res.Message)
		v.ActiveTab = domain.TabOutput
	case res.Success:
		leaveRun(v)
		v.Output = res.Output
		clearProblems(v)
		v.ActiveTab = domain.TabOutput
	case len(res.Problems) > 0:
		leaveRun(v)
		v.Output = []string{}
		setProblems(v, res.Problems, res.Summary)
		v.ActiveTab = domain.TabProblems
	default:
		leaveRun(v)
		v.Output = res.Output
		clearProblems(v)
	}
}

// leaveRun returns a finished run to idle. Run sessions only live while input is pending.
func leaveRun(v *domain.View) {
	v.Phase = domain.PhaseIdle
	v.SessionID = ""
	v.Cursor = 0
	v.Finished = false
}

func applyDebugStartFailure(v *domain.View, res domain.DebugResult) {
	clearSession(v)
	e := problems.LegacyError{Message: "Failed to start debug session"}
	if res.Error != nil {
		e = problems.LegacyError{Message: res.Error.Message, Line: res.Error.Line, Expression: res.Error.Expression}
	}
	list, summary := problems.Single(e)
	setProblems(v, list, summary)
	v.ActiveTab = domain.TabProblems
}

func applyDebugCreated(v *domain.View, res domain.DebugResult) {
	v.SessionID = res.SessionID
	v.Environment = res.Environment
	v.Trace = res.Trace
	v.Output = res.Output
	v.Detail = res.Detail
	v.MemoryKB = res.MemoryKB
	v.Cursor = res.Cursor
	v.Finished = false
}

// applyNextError handles a run-forward to the next unreported error.
// The previous problem is always discarded.
func applyNextError(v *domain.View, res domain.DebugResult) {
	v.Environment = res.Environment
	v.Trace = res.Trace
	v.Output = res.Output
	v.Detail = res.Detail
	v.MemoryKB = res.MemoryKB
	v.Cursor = res.Cursor
	stopWaiting(v)
	clearProblems(v)

	switch {
	case res.Done:
		finishDebug(v)
		v.ActiveTab = domain.TabOutput
	case res.NeedsInput:
		v.Phase = domain.PhaseDebugActive
		line, message := promptOf(res.Error)
		waitForInput(v, line, message)
		v.ActiveTab = domain.TabOutput
	case res.Error != nil:
		v.Phase = domain.PhaseDebugActive
		reportDebugError(v, res.Error)
	default:
		v.Phase = domain.PhaseDebugActive
	}
}

// applyStep merges one step forward. Detail is merged rather than replaced so
// state_info survives steps that do not report it.
func applyStep(v *domain.View, res domain.DebugResult) {
	v.Environment = res.Environment
	v.Trace = res.Trace
	v.Output = res.Output
	v.MemoryKB = res.MemoryKB
	v.Cursor = res.Cursor
	mergeDetail(v, res.Detail)

	if res.Done {
		finishDebug(v)
	}
	switch {
	case res.NeedsInput:
		line, message := promptOf(res.Error)
		waitForInput(v, line, message)
	case res.Error != nil:
		stopWaiting(v)
		reportDebugError(v, res.Error)
	}
}

// applyBack only refreshes the inspector data. Output, problems and the finished
// flag belong to the forward execution and are never rewound. A bare environment
// body carries no state_info, so the held one is kept.
func applyBack(v *domain.View, res domain.DebugResult) {
	v.Environment = res.Environment
	v.Trace = res.Trace
	v.MemoryKB = res.MemoryKB
	if info, ok := res.Detail[domain.StateInfoKey]; ok {
		mergeDetail(v, map[string]any{domain.StateInfoKey: info})
	}
}

// applyDebugInput settles an input answer given during a debug session.
func applyDebugInput(v *domain.View, res domain.RunResult) {
	v.Environment = res.Environment
	v.Trace = res.Trace
	v.Output = res.Output
	v.MemoryKB = res.MemoryKB
	mergeDetail(v, res.Detail)

	switch {
	case res.NeedsInput:
		clearProblems(v)
		waitForInput(v, res.InputLine, res.Message)
		v.ActiveTab = domain.TabOutput
	case res.Success:
		stopWaiting(v)
		clearProblems(v)
		finishDebug(v)
		v.ActiveTab = domain.TabOutput
	case len(res.Problems) > 0:
		stopWaiting(v)
		v.Phase = domain.PhaseDebugActive
		setProblems(v, res.Problems, res.Summary)
		v.ActiveTab = domain.TabProblems
	default:
		stopWaiting(v)
		v.Phase = domain.PhaseDebugActive
	}
}

func finishDebug(v *domain.View) {
	v.Phase = domain.PhaseDebugFinished
	v.Finished = true
}

func reportDebugError(v *domain.View, e *domain.DebugError) {
	list, summary := problems.Single(problems.LegacyError{
		Message:    e.Message,
		Line:       e.Line,
		Expression: e.Expression,
	})
	setProblems(v, list, summary)
	v.ActiveTab = domain.TabProblems
}

func promptOf(e *domain.DebugError) (*int, string) {
	if e == nil {
		return nil, ""
	}
	return e.Line, e.Message
}

func mergeDetail(v *domain.View, detail map[string]any) {
	merged := domain.CloneMap(v.Detail)
	for k, val := range detail {
		merged[k] = val
	}
	v.Detail = merged
}

func runOutcome(res domain.RunResult) domain.CallOutcome {
	switch {
	case res.Success || res.NeedsInput:
		return domain.OutcomeOK
	case len(res.Problems) == 1 && res.Problems[0].Message == domain.InvalidResponseMessage:
		return domain.OutcomeTransport
	default:
		return domain.OutcomeFailure
	}
}

func debugOutcome(res domain.DebugResult) domain.CallOutcome {
	switch {
	case res.Error == nil || res.NeedsInput:
		return domain.OutcomeOK
	case res.Error.Message == domain.InvalidResponseMessage:
		return domain.OutcomeTransport
	default:
		return domain.OutcomeFailure
	}
}

// logSummaryDrift reports a remote summary that disagrees with its own problem list.
// The remote summary is kept as sent.
func (c *Controller) logSummaryDrift(res domain.RunResult) {
	if res.Summary.IsZero() && len(res.Problems) == 0 {
		return
	}
	if derived := problems.Summarize(res.Problems); derived != res.Summary {
		c.logger.Debug("remote summary differs from problems",
			"remote_total", res.Summary.TotalProblems,
			"derived_total", derived.TotalProblems,
		)
	}
}
