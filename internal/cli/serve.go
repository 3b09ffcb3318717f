package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/ayr/pkg/adapters/http"
	"github.com/aretw0/ayr/pkg/adapters/mcp"
	"github.com/aretw0/ayr/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP collaborator API on addr until ctx is cancelled.
func Serve(ctx context.Context, app *App, metrics *observability.Metrics, addr string) error {
	opts := []httpadapter.Option{httpadapter.WithLogger(app.Logger)}
	if metrics != nil {
		opts = append(opts, httpadapter.WithMetrics(metrics.Handler()))
	}
	srv, err := httpadapter.New(app.Workspaces(), opts...)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("ayr server listening", "addr", addr, "runtime", app.Config.Server.URL)
		serverErrors <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		app.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return httpSrv.Close()
		}
		return nil
	}
}

// MCP transports.
const (
	MCPStdio = "stdio"
	MCPSSE   = "sse"
)

// ServeMCP runs the MCP server over stdio or SSE until ctx is cancelled.
func ServeMCP(ctx context.Context, app *App, transport string, port int) error {
	srv := mcp.NewServer(app.Workspaces(), mcp.WithLogger(app.Logger))

	switch transport {
	case MCPStdio:
		app.Logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	case MCPSSE:
		app.Logger.Info("starting MCP server (sse)", "port", port)
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return errors.New("unknown transport " + transport + ", supported: stdio, sse")
	}
}
