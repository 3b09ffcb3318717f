package ayr

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/ayr/internal/logging"
	"github.com/aretw0/ayr/internal/runtime"
	"github.com/aretw0/ayr/pkg/adapters/remote"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/ports"
)

// Controller is the high-level entry point of the ayr library.
// It wraps the internal session state machine and the HTTP transport to the runtime.
type Controller struct {
	runtime    *runtime.Controller
	transport  ports.Transport
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	httpClient *http.Client
	timeout    time.Duration
	snapshot   *domain.Snapshot
}

// Option defines a functional option for configuring the Controller.
type Option func(*Controller)

// WithTransport injects a custom Transport, bypassing the default HTTP client.
func WithTransport(t ports.Transport) Option {
	return func(c *Controller) {
		c.transport = t
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHTTPClient sets the HTTP client used by the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Controller) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every call of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithSnapshot resumes a controller persisted earlier.
func WithSnapshot(s *domain.Snapshot) Option {
	return func(c *Controller) {
		c.snapshot = s
	}
}

// New creates an idle controller for the runtime at baseURL.
// If WithTransport is provided, baseURL is ignored.
func New(baseURL string, opts ...Option) *Controller {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	if c.transport == nil {
		clientOpts := []remote.Option{
			remote.WithLogger(c.logger),
			remote.WithHTTPClient(c.httpClient),
		}
		if c.timeout > 0 {
			clientOpts = append(clientOpts, remote.WithTimeout(c.timeout))
		}
		c.transport = remote.New(baseURL, clientOpts...)
	}

	c.runtime = runtime.NewController(c.transport,
		runtime.WithLogger(c.logger),
		runtime.WithLifecycleHooks(c.hooks),
		runtime.WithSnapshot(c.snapshot),
	)
	return c
}

// Run executes the whole source. Returns domain.ErrBusy while another call is in flight.
func (c *Controller) Run(ctx context.Context, source string) error {
	return c.runtime.Run(ctx, source)
}

// StartDebug opens a debug session scoped to debugKey and runs it to the first error.
func (c *Controller) StartDebug(ctx context.Context, debugKey, source string) error {
	return c.runtime.StartDebug(ctx, debugKey, source)
}

// RerunToNextError continues the debug session to the next error not reported yet.
func (c *Controller) RerunToNextError(ctx context.Context) error {
	return c.runtime.RerunToNextError(ctx)
}

// Step executes one statement of the debug session.
func (c *Controller) Step(ctx context.Context) error {
	return c.runtime.Step(ctx)
}

// Back moves the debug session one snapshot back.
func (c *Controller) Back(ctx context.Context) error {
	return c.runtime.Back(ctx)
}

// SubmitInput answers a pending input prompt.
func (c *Controller) SubmitInput(ctx context.Context, value string) error {
	return c.runtime.SubmitInput(ctx, value)
}

// Refresh re-reads the environment and detail of the held session.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.runtime.Refresh(ctx)
}

// Reset leaves any session and returns to idle.
func (c *Controller) Reset() {
	c.runtime.Reset()
}

// SetActiveTab brings an inspector tab to front.
func (c *Controller) SetActiveTab(tab string) error {
	return c.runtime.SetActiveTab(tab)
}

// View returns a copy of the flat read model.
func (c *Controller) View() domain.View {
	return c.runtime.View()
}

// Busy reports whether a remote call is in flight.
func (c *Controller) Busy() bool {
	return c.runtime.Busy()
}

// Snapshot returns the persistable form of the controller.
func (c *Controller) Snapshot() *domain.Snapshot {
	return c.runtime.Snapshot()
}

// Restore replaces the controller state with a persisted snapshot.
func (c *Controller) Restore(s *domain.Snapshot) {
	c.runtime.Restore(s)
}

// Transport returns the transport the controller talks through.
func (c *Controller) Transport() ports.Transport {
	return c.transport
}

// Input validation errors returned by SubmitInput.
var (
	ErrInputTooLarge = runtime.ErrInputTooLarge
	ErrInvalidUTF8   = runtime.ErrInvalidUTF8
)
