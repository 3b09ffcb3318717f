/*
Package runner implements an interactive loop that drives a workspace controller
from a line-oriented console.

Each line read from the IOHandler is parsed into a command (run, debug, step,
back, next, input, tab, ...) and dispatched to the controller. The resulting
view is rendered back through the same handler and, if configured, persisted.

# Key Components

  - Runner: The loop itself. It owns signal handling so that Ctrl+C cancels the
    remote call in flight without leaving the console.
  - IOHandler: Decouples how commands are read and views are shown.
  - TextHandler: Human friendly console rendering.
  - JSONHandler: JSON-Lines for editors and scripts.

# Usage

	r := runner.NewRunner(
		runner.WithKey("main.ayr"),
		runner.WithSource(runner.FileSource("main.ayr")),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, controller); err != nil {
		log.Fatal(err)
	}

While the program waits for input, plain lines are answers and commands need a
leading colon (":step", ":reset").
*/
package runner
