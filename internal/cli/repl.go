package cli

import (
	"context"
	"io"

	"github.com/aretw0/ayr/internal/presentation/tui"
	"github.com/aretw0/ayr/pkg/domain"
	"github.com/aretw0/ayr/pkg/runner"
)

// REPLOptions configures RunREPL.
type REPLOptions struct {
	Key      string
	Source   string // path of the program file
	JSON     bool
	Headless bool
	In       io.Reader
	Out      io.Writer
}

// RunREPL drives one workspace interactively until the input ends.
// The workspace is resumed from storage and saved after every action. Like the
// servers, the REPL does not hold the workspace lock between actions.
func RunREPL(ctx context.Context, app *App, o REPLOptions) error {
	key, err := ResolveKey(o.Key, o.Source)
	if err != nil {
		return err
	}

	snapshot, err := app.Manager.LoadOrNew(ctx, key)
	if err != nil {
		return err
	}
	ctrl := app.NewController(snapshot)

	var handler runner.IOHandler
	switch {
	case o.JSON:
		handler = runner.NewJSONHandler(o.In, o.Out)
	case o.Headless || !IsTerminal(o.Out):
		handler = runner.NewTextHandler(o.In, o.Out)
	default:
		tui.PrintBanner(o.Out)
		handler = runner.NewTextHandler(o.In, o.Out,
			runner.WithTextHandlerRenderer(tui.NewViewRenderer()))
	}

	opts := []runner.Option{
		runner.WithInputHandler(handler),
		runner.WithLogger(app.Logger),
		runner.WithKey(key),
		runner.WithHeadless(o.Headless || o.JSON),
		runner.WithPersist(func(ctx context.Context, s *domain.Snapshot) error {
			return app.Manager.Save(ctx, key, s)
		}),
	}
	if o.Source != "" {
		opts = append(opts, runner.WithSource(runner.FileSource(o.Source)))
	}

	return runner.NewRunner(opts...).Run(ctx, ctrl)
}
