package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/ayr"
	"github.com/aretw0/ayr/internal/logging"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ResourcePrefix addresses workspace views as MCP resources.
const ResourcePrefix = "ayr://workspaces/"

// Workspaces is the registry of live controllers the tools drive.
type Workspaces = session.Registry[*ayr.Controller]

// KeyArgs addresses a workspace.
type KeyArgs struct {
	Key string `json:"key"`
}

// SourceArgs carries program text for run and debug.
type SourceArgs struct {
	Key    string `json:"key"`
	Source string `json:"source"`
}

// InputArgs answers an input prompt.
type InputArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TabArgs selects an inspector tab.
type TabArgs struct {
	Key string `json:"key"`
	Tab string `json:"tab"`
}

// ViewResponse is the structured result of every tool.
type ViewResponse struct {
	Key  string      `json:"key" jsonschema_description:"Workspace key"`
	View domain.View `json:"view" jsonschema_description:"Flat read model of the workspace after the action"`
}

// Server exposes workspaces as MCP tools.
type Server struct {
	workspaces *Workspaces
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server over the given workspaces.
func NewServer(workspaces *Workspaces, opts ...Option) *Server {
	s := &Server{
		workspaces: workspaces,
		logger:     logging.NewNop(),
		mcpServer: server.NewMCPServer("ayr-mcp", strings.TrimSpace(ayr.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func keyParam() mcp.ToolOption {
	return mcp.WithString("key", mcp.Required(), mcp.Description("Workspace key, usually the source file path"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("ayr_run",
		mcp.WithDescription("Run a whole program. Shows output, or problems, or an input prompt."),
		keyParam(),
		mcp.WithString("source", mcp.Required(), mcp.Description("Program source text")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("ayr_debug",
		mcp.WithDescription("Start a debug session and run it to the first error."),
		keyParam(),
		mcp.WithString("source", mcp.Required(), mcp.Description("Program source text")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleDebug))

	s.mcpServer.AddTool(mcp.NewTool("ayr_next_error",
		mcp.WithDescription("Continue the debug session to the next error not reported yet."),
		keyParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleNextError))

	s.mcpServer.AddTool(mcp.NewTool("ayr_step",
		mcp.WithDescription("Execute one statement of the debug session."),
		keyParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleStep))

	s.mcpServer.AddTool(mcp.NewTool("ayr_back",
		mcp.WithDescription("Move the debug session one snapshot back."),
		keyParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("ayr_input",
		mcp.WithDescription("Answer the pending input prompt."),
		keyParam(),
		mcp.WithString("value", mcp.Required(), mcp.Description("Answer text; several variables are separated by spaces")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleInput))

	s.mcpServer.AddTool(mcp.NewTool("ayr_view",
		mcp.WithDescription("Read the current view of a workspace."),
		keyParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleView))

	s.mcpServer.AddTool(mcp.NewTool("ayr_tab",
		mcp.WithDescription("Bring an inspector tab to front."),
		keyParam(),
		mcp.WithString("tab", mcp.Required(), mcp.Description("Tab name"), mcp.Enum(tabNames()...)),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleTab))

	s.mcpServer.AddTool(mcp.NewTool("ayr_reset",
		mcp.WithDescription("Leave any session of the workspace and forget it."),
		keyParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))
}

func tabNames() []string {
	names := make([]string, len(domain.Tabs))
	for i, t := range domain.Tabs {
		names[i] = string(t)
	}
	return names
}

func (s *Server) handleRun(ctx context.Context, _ mcp.CallToolRequest, args SourceArgs) (ViewResponse, error) {
	return s.act(ctx, "run", args.Key, func(ctx context.Context, c *ayr.Controller) error {
		return c.Run(ctx, args.Source)
	})
}

func (s *Server) handleDebug(ctx context.Context, _ mcp.CallToolRequest, args SourceArgs) (ViewResponse, error) {
	return s.act(ctx, "debug", args.Key, func(ctx context.Context, c *ayr.Controller) error {
		return c.StartDebug(ctx, args.Key, args.Source)
	})
}

func (s *Server) handleNextError(ctx context.Context, _ mcp.CallToolRequest, args KeyArgs) (ViewResponse, error) {
	return s.act(ctx, "next-error", args.Key, func(ctx context.Context, c *ayr.Controller) error {
		return c.RerunToNextError(ctx)
	})
}

func (s *Server) handleStep(ctx context.Context, _ mcp.CallToolRequest, args KeyArgs) (ViewResponse, error) {
	return s.act(ctx, "step", args.Key, func(ctx context.Context, c *ayr.Controller) error {
		return c.Step(ctx)
	})
}

func (s *Server) handleBack(ctx context.Context, _ mcp.CallToolRequest, args KeyArgs) (ViewResponse, error) {
	return s.act(ctx, "back", args.Key, func(ctx context.Context, c *ayr.Controller) error {
		return c.Back(ctx)
	})
}

func (s *Server) handleInput(ctx context.Context, _ mcp.CallToolRequest, args InputArgs) (ViewResponse, error) {
	return s.act(ctx, "input", args.Key, func(ctx context.Context, c *ayr.Controller) error {
		return c.SubmitInput(ctx, args.Value)
	})
}

func (s *Server) handleTab(ctx context.Context, _ mcp.CallToolRequest, args TabArgs) (ViewResponse, error) {
	return s.act(ctx, "tab", args.Key, func(_ context.Context, c *ayr.Controller) error {
		return c.SetActiveTab(args.Tab)
	})
}

func (s *Server) handleView(ctx context.Context, _ mcp.CallToolRequest, args KeyArgs) (ViewResponse, error) {
	if args.Key == "" {
		return ViewResponse{}, errors.New("key is required")
	}
	c, err := s.workspaces.Get(ctx, args.Key)
	if err != nil {
		return ViewResponse{}, err
	}
	return ViewResponse{Key: args.Key, View: c.View()}, nil
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args KeyArgs) (ViewResponse, error) {
	if args.Key == "" {
		return ViewResponse{}, errors.New("key is required")
	}
	if err := s.workspaces.Forget(ctx, args.Key); err != nil {
		return ViewResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return ViewResponse{Key: args.Key, View: domain.NewView()}, nil
}

// act runs one controller action and persists the workspace afterwards.
func (s *Server) act(ctx context.Context, op, key string, fn func(context.Context, *ayr.Controller) error) (ViewResponse, error) {
	if key == "" {
		return ViewResponse{}, errors.New("key is required")
	}
	c, err := s.workspaces.Get(ctx, key)
	if err != nil {
		return ViewResponse{}, err
	}

	actErr := fn(ctx, c)
	if errors.Is(actErr, domain.ErrBusy) {
		return ViewResponse{}, fmt.Errorf("%s: workspace %q is busy: %w", op, key, actErr)
	}
	if err := s.workspaces.Persist(ctx, key); err != nil {
		s.logger.Warn("Failed to persist workspace", "workspace", key, "op", op, "err", err)
	}
	if actErr != nil {
		s.logger.Warn("MCP action failed", "workspace", key, "op", op, "err", actErr)
		return ViewResponse{}, fmt.Errorf("%s failed: %w", op, actErr)
	}
	return ViewResponse{Key: key, View: c.View()}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(ResourcePrefix+"{key}", "Workspace view",
		mcp.WithTemplateDescription("Flat read model of one workspace"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readWorkspace)
}

func (s *Server) readWorkspace(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	key := strings.TrimPrefix(uri, ResourcePrefix)
	if key == "" || key == uri {
		return nil, fmt.Errorf("invalid workspace resource %q", uri)
	}

	c, err := s.workspaces.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	data, err := json.Marshal(c.View())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
