package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithHeadless suppresses the greeting and the initial render.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithKey sets the debug key the sessions are scoped to.
func WithKey(key string) Option {
	return func(r *Runner) {
		r.Key = key
	}
}

// WithSource configures where run and debug read the program from.
func WithSource(source SourceFunc) Option {
	return func(r *Runner) {
		r.Source = source
	}
}

// WithPersist configures a callback invoked with the snapshot after every action.
func WithPersist(persist PersistFunc) Option {
	return func(r *Runner) {
		r.Persist = persist
	}
}
