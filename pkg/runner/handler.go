package runner

import (
	"context"

	"github.com/aretw0/ayr/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Render presents the current view.
	Render(ctx context.Context, view domain.View) error

	// Input reads one raw line from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (e.g. errors, status updates).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms a view into printable text.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(domain.View) (string, error)
