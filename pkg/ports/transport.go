package ports

import (
	"context"

	"github.com/aretw0/ayr/pkg/domain"
)

// Transport is the boundary to the remote interpreter service.
//
// Run, StartDebug, RunToNextError and SubmitInput never fail: a transport or decode
// failure is folded into an unsuccessful result so the controller can show it as a problem.
// The remaining operations return an error and leave the result zero-valued.
type Transport interface {
	Run(ctx context.Context, source string) domain.RunResult
	StartDebug(ctx context.Context, source, debugKey string) domain.DebugResult
	RunToNextError(ctx context.Context, sessionID, debugKey string) domain.DebugResult
	Step(ctx context.Context, sessionID string) (domain.DebugResult, error)
	Back(ctx context.Context, sessionID string) (domain.DebugResult, error)
	SubmitInput(ctx context.Context, sessionID, value string) domain.RunResult

	// Env returns the live variable environment of a session.
	Env(ctx context.Context, sessionID string) (map[string]any, error)

	// Detail returns the inspection detail of a session.
	Detail(ctx context.Context, sessionID string) (map[string]any, error)
}
