package observability_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTransition(ctx, &domain.TransitionEvent{
		Action:  "run",
		From:    domain.PhaseRunning,
		To:      domain.PhaseIdle,
		Summary: domain.Summary{TotalErrors: 2, TotalWarnings: 1, TotalProblems: 3},
	})
	hooks.OnRemoteCall(ctx, &domain.CallEvent{Op: "run", Outcome: domain.OutcomeFailure, Duration: 20 * time.Millisecond})
	hooks.OnRemoteCall(ctx, &domain.CallEvent{Op: "run", Outcome: domain.OutcomeFailure, Duration: 30 * time.Millisecond})
	hooks.OnRemoteCall(ctx, &domain.CallEvent{Op: "step", Outcome: domain.OutcomeStale})

	reg := m.Registry()
	count, err := testutil.GatherAndCount(reg, "ayr_remote_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per op and outcome")

	count, err = testutil.GatherAndCount(reg, "ayr_remote_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "stale calls are not timed")

	count, err = testutil.GatherAndCount(reg, "ayr_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnRemoteCall(context.Background(), &domain.CallEvent{Op: "debug", Outcome: domain.OutcomeOK, Duration: time.Millisecond})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `ayr_remote_calls_total{op="debug",outcome="ok"} 1`)
}

func TestMetrics_RuntimeCollectors(t *testing.T) {
	m := observability.NewMetrics(observability.WithRuntimeCollectors())
	count, err := testutil.GatherAndCount(m.Registry(), "go_goroutines")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
