/*
Package ayr is the client-side controller for the AYR runtime, a remote stepping
interpreter that owns lexing, parsing, execution and time-travel history.

The module owns three things the runtime does not: the session state machine
(idle, running, awaiting input, debugging), the normalization of the runtime's
inconsistent response shapes, and the unification of structured and legacy
diagnostics into one problem list.

# Usage

	ctrl := ayr.New("http://localhost:8000")

	if err := ctrl.Run(ctx, source); err != nil {
		// only domain.ErrBusy: another call is still in flight
	}

	view := ctrl.View()
	switch {
	case view.AwaitingInput:
		_ = ctrl.SubmitInput(ctx, "42")
	case len(view.Problems) > 0:
		// show view.Problems, the output is empty
	default:
		// show view.Output
	}

Debugging runs the program forward to the first error and then lets the caller
step, go back in history or continue to the next new error:

	_ = ctrl.StartDebug(ctx, "main.ayr", source)
	_ = ctrl.Step(ctx)
	_ = ctrl.Back(ctx)
	_ = ctrl.RerunToNextError(ctx)

Controllers are resumable: Snapshot returns a value that a ports.StateStore can
persist, and WithSnapshot (or Restore) brings it back.
*/
package ayr
