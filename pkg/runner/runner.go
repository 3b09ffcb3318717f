package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/ayr/internal/logging"
	"github.com/aretw0/ayr/pkg/domain"
)

// Controller is the part of the workspace controller the console drives.
// *ayr.Controller satisfies it.
type Controller interface {
	Run(ctx context.Context, source string) error
	StartDebug(ctx context.Context, debugKey, source string) error
	RerunToNextError(ctx context.Context) error
	Step(ctx context.Context) error
	Back(ctx context.Context) error
	SubmitInput(ctx context.Context, value string) error
	Refresh(ctx context.Context) error
	Reset()
	SetActiveTab(tab string) error
	View() domain.View
	Snapshot() *domain.Snapshot
}

// SourceFunc returns the current program text.
type SourceFunc func() (string, error)

// PersistFunc stores the controller snapshot after an action.
type PersistFunc func(ctx context.Context, snapshot *domain.Snapshot) error

// FileSource reads the program from path on every call, so edits between
// commands are picked up.
func FileSource(path string) SourceFunc {
	return func() (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read source: %w", err)
		}
		return string(data), nil
	}
}

// StaticSource always returns the same program.
func StaticSource(source string) SourceFunc {
	return func() (string, error) { return source, nil }
}

// Runner reads commands from a handler and applies them to a controller.
type Runner struct {
	Handler  IOHandler
	Logger   *slog.Logger
	Headless bool
	Key      string
	Source   SourceFunc
	Persist  PersistFunc

	// debugSource is the program the current debug session was started with.
	debugSource string
}

// NewRunner creates a Runner with text IO on Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	if r.Key == "" {
		r.Key = "main"
	}
	return r
}

// Run loops until the input ends, an exit command is read, ctx is cancelled
// or the user interrupts while no call is in flight.
func (r *Runner) Run(ctx context.Context, ctrl Controller) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if !r.Headless {
		_ = r.Handler.SystemOutput(ctx, "Type 'help' for commands.")
		if err := r.Handler.Render(ctx, ctrl.View()); err != nil {
			return err
		}
	}

	for {
		line, err := r.Handler.Input(signals.Context())
		if err != nil {
			signals.CheckRace()
			if errors.Is(err, io.EOF) || signals.Context().Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}

		cmd := ParseCommand(line, ctrl.View().AwaitingInput)
		if cmd.Name == "" {
			continue
		}
		if cmd.Name == CmdExit {
			return nil
		}

		// Controller actions fold a cancelled call into the view and return nil,
		// so the interrupt is checked whatever dispatch returned.
		err = r.dispatch(signals.Context(), ctrl, cmd)
		if signals.Interrupted() {
			r.Logger.Debug("call interrupted", "command", cmd.Name)
			_ = r.Handler.SystemOutput(ctx, "Interrupted.")
			signals.Reset()
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			_ = r.Handler.SystemOutput(ctx, "Error: "+err.Error())
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, ctrl Controller, cmd Command) error {
	switch cmd.Name {
	case CmdHelp:
		return r.Handler.SystemOutput(ctx, helpText)
	case CmdView:
		return r.Handler.Render(ctx, ctrl.View())
	case CmdTab:
		if err := ctrl.SetActiveTab(cmd.Arg); err != nil {
			return err
		}
		return r.settle(ctx, ctrl, nil)
	case CmdReset:
		ctrl.Reset()
		r.debugSource = ""
		return r.settle(ctx, ctrl, nil)
	}

	action, err := r.action(ctrl, cmd)
	if err != nil {
		return err
	}
	return r.settle(ctx, ctrl, action(ctx))
}

// action resolves a command to the controller call it performs.
func (r *Runner) action(ctrl Controller, cmd Command) (func(context.Context) error, error) {
	switch cmd.Name {
	case CmdRun:
		source, err := r.source()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error { return ctrl.Run(ctx, source) }, nil
	case CmdDebug:
		source, err := r.source()
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) error {
			r.debugSource = source
			return ctrl.StartDebug(ctx, r.Key, source)
		}, nil
	case CmdNext, CmdStep, CmdBack:
		if stale, err := r.sourceChanged(ctrl); err != nil {
			return nil, err
		} else if stale {
			ctrl.Reset()
			r.debugSource = ""
			return nil, errors.New("source changed since the debug session started; session reset, run 'debug' again")
		}
		switch cmd.Name {
		case CmdNext:
			return ctrl.RerunToNextError, nil
		case CmdStep:
			return ctrl.Step, nil
		default:
			return ctrl.Back, nil
		}
	case CmdRefresh:
		return ctrl.Refresh, nil
	case CmdInput:
		return func(ctx context.Context) error { return ctrl.SubmitInput(ctx, cmd.Arg) }, nil
	default:
		return nil, fmt.Errorf("unknown command %q, type 'help'", cmd.Name)
	}
}

// settle renders and persists the outcome of an action, then reports its error.
func (r *Runner) settle(ctx context.Context, ctrl Controller, actionErr error) error {
	if errors.Is(actionErr, domain.ErrBusy) {
		return actionErr
	}
	if err := r.Handler.Render(ctx, ctrl.View()); err != nil {
		return err
	}
	if r.Persist != nil {
		if err := r.Persist(context.WithoutCancel(ctx), ctrl.Snapshot()); err != nil {
			r.Logger.Warn("failed to persist workspace", "key", r.Key, "err", err)
		}
	}
	return actionErr
}

func (r *Runner) source() (string, error) {
	if r.Source == nil {
		return "", errors.New("no source configured")
	}
	return r.Source()
}

// sourceChanged reports whether the program differs from the one the held
// debug session was started with. Sessions resumed from storage are not checked.
func (r *Runner) sourceChanged(ctrl Controller) (bool, error) {
	if r.debugSource == "" || r.Source == nil || !ctrl.View().Phase.IsDebug() {
		return false, nil
	}
	current, err := r.Source()
	if err != nil {
		return false, err
	}
	return current != r.debugSource, nil
}
