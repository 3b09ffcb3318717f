package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/ayr"
	"github.com/aretw0/ayr/pkg/adapters/memory"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers like a runtime that prints 10, asks for input on run
// and stops at a division by zero on line 2 when debugged.
type fakeTransport struct{}

func (fakeTransport) Run(ctx context.Context, source string) domain.RunResult {
	res := domain.NewRunResult()
	res.NeedsInput = true
	res.SessionID = "run-1"
	res.Output = []string{"10"}
	res.InputLine = domain.IntPtr(3)
	return res
}

func (fakeTransport) StartDebug(ctx context.Context, source, debugKey string) domain.DebugResult {
	res := domain.NewDebugResult()
	res.Success = true
	res.SessionID = "dbg-1"
	return res
}

func (fakeTransport) RunToNextError(ctx context.Context, sessionID, debugKey string) domain.DebugResult {
	res := domain.NewDebugResult()
	res.Cursor = 2
	res.Output = []string{"10"}
	res.Error = &domain.DebugError{Message: "division by zero", Line: domain.IntPtr(2)}
	return res
}

func (fakeTransport) Step(ctx context.Context, sessionID string) (domain.DebugResult, error) {
	res := domain.NewDebugResult()
	res.Success = true
	res.Cursor = 3
	return res, nil
}

func (fakeTransport) Back(ctx context.Context, sessionID string) (domain.DebugResult, error) {
	res := domain.NewDebugResult()
	res.Success = true
	res.Cursor = 1
	return res, nil
}

func (fakeTransport) SubmitInput(ctx context.Context, sessionID, value string) domain.RunResult {
	res := domain.NewRunResult()
	res.Success = true
	res.Output = []string{"10", value}
	return res
}

func (fakeTransport) Env(ctx context.Context, sessionID string) (map[string]any, error) {
	return map[string]any{}, nil
}

func (fakeTransport) Detail(ctx context.Context, sessionID string) (map[string]any, error) {
	return map[string]any{}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	manager := session.NewManager(memory.NewStore())
	workspaces := session.NewRegistry(manager, func(key string, snapshot *domain.Snapshot) *ayr.Controller {
		return ayr.New("", ayr.WithTransport(fakeTransport{}), ayr.WithSnapshot(snapshot))
	})
	return NewServer(workspaces)
}

func TestServer_RunAndInput(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleRun(ctx, mcp.CallToolRequest{}, SourceArgs{Key: "main.ayr", Source: "print 10\ninput y"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingInput, resp.View.Phase)
	require.NotNil(t, resp.View.InputPrompt)
	assert.Equal(t, 3, *resp.View.InputPrompt.Line)

	resp, err = s.handleInput(ctx, mcp.CallToolRequest{}, InputArgs{Key: "main.ayr", Value: "7"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, resp.View.Phase)
	assert.Equal(t, []string{"10", "7"}, resp.View.Output)
}

func TestServer_DebugNavigation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleDebug(ctx, mcp.CallToolRequest{}, SourceArgs{Key: "main.ayr", Source: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDebugActive, resp.View.Phase)
	assert.Equal(t, "dbg-1", resp.View.SessionID)
	require.Len(t, resp.View.Problems, 1)

	resp, err = s.handleStep(ctx, mcp.CallToolRequest{}, KeyArgs{Key: "main.ayr"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.View.Cursor)

	resp, err = s.handleBack(ctx, mcp.CallToolRequest{}, KeyArgs{Key: "main.ayr"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.View.Cursor)

	resp, err = s.handleView(ctx, mcp.CallToolRequest{}, KeyArgs{Key: "main.ayr"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.View.Cursor)
}

func TestServer_TabAndReset(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleTab(ctx, mcp.CallToolRequest{}, TabArgs{Key: "main.ayr", Tab: "timeline"})
	require.NoError(t, err)
	assert.Equal(t, domain.TabTimeline, resp.View.ActiveTab)

	_, err = s.handleTab(ctx, mcp.CallToolRequest{}, TabArgs{Key: "main.ayr", Tab: "console"})
	assert.ErrorIs(t, err, domain.ErrInvalidTab)

	resp, err = s.handleReset(ctx, mcp.CallToolRequest{}, KeyArgs{Key: "main.ayr"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, resp.View.Phase)

	keys, err := s.workspaces.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestServer_MissingKey(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleStep(context.Background(), mcp.CallToolRequest{}, KeyArgs{})
	assert.Error(t, err)
}

func TestServer_ReadWorkspaceResource(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleDebug(ctx, mcp.CallToolRequest{}, SourceArgs{Key: "main.ayr", Source: "x"})
	require.NoError(t, err)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = ResourcePrefix + "main.ayr"
	contents, err := s.readWorkspace(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	var view domain.View
	require.NoError(t, json.Unmarshal([]byte(text.Text), &view))
	assert.Equal(t, "dbg-1", view.SessionID)

	req.Params.URI = "other://main.ayr"
	_, err = s.readWorkspace(ctx, req)
	assert.Error(t, err)
}
