package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/ayr"
	"github.com/aretw0/ayr/internal/logging"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Workspaces is the registry of live controllers the server drives.
type Workspaces = session.Registry[*ayr.Controller]

// Server exposes workspaces over HTTP.
type Server struct {
	workspaces *Workspaces
	streams    *StreamManager
	logger     *slog.Logger
	metrics    http.Handler
	apiVersion string
	validator  *requestValidator
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New creates a server over the given workspaces.
func New(workspaces *Workspaces, opts ...Option) (*Server, error) {
	s := &Server{
		workspaces: workspaces,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	s.apiVersion = doc.Info.Version
	if s.validator, err = newRequestValidator(doc); err != nil {
		return nil, err
	}
	return s, nil
}

// Streams returns the SSE fan-out.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(s.validator.middleware)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(RawSpec())
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Get("/workspaces", s.listWorkspaces)
	r.Route("/workspaces/{key}", func(r chi.Router) {
		r.Get("/", s.getView)
		r.Delete("/", s.forget)
		r.Post("/run", s.run)
		r.Post("/debug", s.startDebug)
		r.Post("/next-error", s.nextError)
		r.Post("/step", s.step)
		r.Post("/back", s.back)
		r.Post("/input", s.input)
		r.Post("/refresh", s.refresh)
		r.Put("/tab", s.setTab)
		r.Get("/events", s.subscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "ayr-http",
		"version":     strings.TrimSpace(ayr.Version),
		"api_version": s.apiVersion,
	})
}

func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	keys, err := s.workspaces.Keys(r.Context())
	if err != nil {
		s.fail(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"workspaces": keys})
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	key, ok := s.key(w, r)
	if !ok {
		return
	}
	c, err := s.workspaces.Get(r.Context(), key)
	if err != nil {
		s.fail(w, "view", err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (s *Server) forget(w http.ResponseWriter, r *http.Request) {
	key, ok := s.key(w, r)
	if !ok {
		return
	}
	var before *domain.View
	if c, live := s.workspaces.Lookup(key); live {
		v := c.View()
		before = &v
	}
	if err := s.workspaces.Forget(r.Context(), key); err != nil {
		s.fail(w, "forget", err)
		return
	}
	if before != nil {
		idle := domain.NewView()
		s.broadcast(key, before, &idle)
	}
	w.WriteHeader(http.StatusNoContent)
}

type sourceRequest struct {
	Source string `json:"source"`
}

type inputRequest struct {
	Value string `json:"value"`
}

type tabRequest struct {
	Tab string `json:"tab"`
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	var body sourceRequest
	if !decode(w, r, &body) {
		return
	}
	s.act(w, r, "run", func(ctx context.Context, c *ayr.Controller) error {
		return c.Run(ctx, body.Source)
	})
}

func (s *Server) startDebug(w http.ResponseWriter, r *http.Request) {
	var body sourceRequest
	if !decode(w, r, &body) {
		return
	}
	key, ok := s.key(w, r)
	if !ok {
		return
	}
	s.act(w, r, "debug", func(ctx context.Context, c *ayr.Controller) error {
		return c.StartDebug(ctx, key, body.Source)
	})
}

func (s *Server) nextError(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, "next-error", func(ctx context.Context, c *ayr.Controller) error {
		return c.RerunToNextError(ctx)
	})
}

func (s *Server) step(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, "step", func(ctx context.Context, c *ayr.Controller) error {
		return c.Step(ctx)
	})
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, "back", func(ctx context.Context, c *ayr.Controller) error {
		return c.Back(ctx)
	})
}

func (s *Server) input(w http.ResponseWriter, r *http.Request) {
	var body inputRequest
	if !decode(w, r, &body) {
		return
	}
	s.act(w, r, "input", func(ctx context.Context, c *ayr.Controller) error {
		return c.SubmitInput(ctx, body.Value)
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.act(w, r, "refresh", func(ctx context.Context, c *ayr.Controller) error {
		return c.Refresh(ctx)
	})
}

func (s *Server) setTab(w http.ResponseWriter, r *http.Request) {
	var body tabRequest
	if !decode(w, r, &body) {
		return
	}
	s.act(w, r, "tab", func(_ context.Context, c *ayr.Controller) error {
		return c.SetActiveTab(body.Tab)
	})
}

// act runs one controller action, broadcasts the resulting diff, persists the
// workspace, and writes the view.
func (s *Server) act(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, *ayr.Controller) error) {
	key, ok := s.key(w, r)
	if !ok {
		return
	}
	// A dropped client must not abort the runtime call half way.
	ctx := context.WithoutCancel(r.Context())

	c, err := s.workspaces.Get(ctx, key)
	if err != nil {
		s.fail(w, op, err)
		return
	}

	before := c.View()
	actErr := fn(ctx, c)
	after := c.View()

	if errors.Is(actErr, domain.ErrBusy) {
		s.fail(w, op, actErr)
		return
	}

	s.broadcast(key, &before, &after)
	if err := s.workspaces.Persist(ctx, key); err != nil {
		s.logger.Warn("Failed to persist workspace", "workspace", key, "op", op, "err", err)
	}

	if actErr != nil {
		s.fail(w, op, actErr)
		return
	}
	writeJSON(w, http.StatusOK, after)
}

func (s *Server) broadcast(key string, before, after *domain.View) {
	diff := domain.Diff(key, before, after)
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("Failed to encode view diff", "workspace", key, "err", err)
		return
	}
	s.streams.Broadcast(key, string(data))
}

func (s *Server) key(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid workspace key %q", chi.URLParam(r, "key"))})
		return "", false
	}
	return key, true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "op", op, "status", status, "err", err)
	} else {
		s.logger.Debug("Request rejected", "op", op, "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// StatusFor maps controller errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTab),
		errors.Is(err, ayr.ErrInputTooLarge),
		errors.Is(err, ayr.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrDecode):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

// subscribeEvents streams view diffs for one workspace as server-sent events.
// The first data frame is the full current view.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming not supported"})
		return
	}
	key, ok := s.key(w, r)
	if !ok {
		return
	}
	c, err := s.workspaces.Get(r.Context(), key)
	if err != nil {
		s.fail(w, "events", err)
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			watch = append(watch, strings.TrimSpace(f))
		}
	}

	ch, cancel := s.streams.Subscribe(key)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	view := c.View()
	if initial, err := json.Marshal(domain.Diff(key, nil, &view)); err == nil {
		fmt.Fprintf(w, "data: %s\n\n", initial)
	}
	flusher.Flush()
	s.logger.Info("SSE: Subscribed to workspace", "workspace", key)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "workspace", key)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matchesWatch(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matchesWatch reports whether a serialized diff touches any watched field.
func matchesWatch(msg string, watch []string) bool {
	var diff domain.ViewDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch field {
		case "phase":
			if diff.Phase != nil || diff.Finished != nil || diff.Busy != nil {
				return true
			}
		case "output":
			if diff.Output != nil {
				return true
			}
		case "problems":
			if diff.Problems != nil || diff.Summary != nil {
				return true
			}
		case "env":
			if len(diff.Environment) > 0 {
				return true
			}
		case "trace":
			if diff.Trace != nil || diff.TraceReset || diff.Cursor != nil {
				return true
			}
		case "input":
			if diff.InputPrompt != nil {
				return true
			}
		}
	}
	return false
}
