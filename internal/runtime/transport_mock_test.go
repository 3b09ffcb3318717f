package runtime

import (
	"context"

	"github.com/aretw0/ayr/pkg/domain"
	"github.com/stretchr/testify/mock"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Run(ctx context.Context, source string) domain.RunResult {
	return m.Called(source).Get(0).(domain.RunResult)
}

func (m *mockTransport) StartDebug(ctx context.Context, source, debugKey string) domain.DebugResult {
	return m.Called(source, debugKey).Get(0).(domain.DebugResult)
}

func (m *mockTransport) RunToNextError(ctx context.Context, sessionID, debugKey string) domain.DebugResult {
	return m.Called(sessionID, debugKey).Get(0).(domain.DebugResult)
}

func (m *mockTransport) Step(ctx context.Context, sessionID string) (domain.DebugResult, error) {
	args := m.Called(sessionID)
	return args.Get(0).(domain.DebugResult), args.Error(1)
}

func (m *mockTransport) Back(ctx context.Context, sessionID string) (domain.DebugResult, error) {
	args := m.Called(sessionID)
	return args.Get(0).(domain.DebugResult), args.Error(1)
}

func (m *mockTransport) SubmitInput(ctx context.Context, sessionID, value string) domain.RunResult {
	return m.Called(sessionID, value).Get(0).(domain.RunResult)
}

func (m *mockTransport) Env(ctx context.Context, sessionID string) (map[string]any, error) {
	args := m.Called(sessionID)
	env, _ := args.Get(0).(map[string]any)
	return env, args.Error(1)
}

func (m *mockTransport) Detail(ctx context.Context, sessionID string) (map[string]any, error) {
	args := m.Called(sessionID)
	detail, _ := args.Get(0).(map[string]any)
	return detail, args.Error(1)
}

func runResult(mutate func(*domain.RunResult)) domain.RunResult {
	r := domain.NewRunResult()
	mutate(&r)
	return r
}

func debugResult(mutate func(*domain.DebugResult)) domain.DebugResult {
	r := domain.NewDebugResult()
	mutate(&r)
	return r
}

// activeDebugView is a controller stopped at an error inside a live debug session.
func activeDebugView() *domain.Snapshot {
	v := domain.NewView()
	v.Phase = domain.PhaseDebugActive
	v.Mode = domain.ModeDebugging
	v.SessionID = "s-1"
	v.DebugKey = "main.ayr"
	v.Cursor = 2
	v.Output = []string{"10"}
	v.Environment = map[string]any{"x": 10}
	v.Trace = []any{"x = 10"}
	v.Detail = map[string]any{domain.StateInfoKey: "snapshot 2", "ops": 4}
	v.Problems = []domain.Problem{{Kind: domain.KindError, Title: "Expression Error (Line 2):", Message: "division by zero", Line: domain.IntPtr(2)}}
	v.Summary = domain.Summary{TotalErrors: 1, TotalProblems: 1}
	v.ActiveTab = domain.TabProblems
	return &domain.Snapshot{View: v}
}
