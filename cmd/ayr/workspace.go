package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ayr"
	"github.com/aretw0/ayr/internal/cli"
)

type action func(ctx context.Context, c *ayr.Controller, key string, args []string) error

// workspaceCommand builds a command that applies fn to a stored workspace and
// prints the resulting view.
func workspaceCommand(use, short string, args cobra.PositionalArgs, fn action) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := workspaceKey(cmd, args)
			if err != nil {
				return err
			}
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			view, actErr := app.Act(cmd.Context(), key, func(ctx context.Context, c *ayr.Controller) error {
				return fn(ctx, c, key, args)
			})
			format, _ := cmd.Flags().GetString("format")
			if err := cli.PrintView(cmd.OutOrStdout(), view, format); err != nil {
				return err
			}
			return actErr
		},
	}
	cmd.Flags().StringP("format", "f", cli.FormatAuto, fmt.Sprintf("Output format %v", cli.Formats))
	return cmd
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return string(data), nil
}

var runCmd = workspaceCommand("run <file>", "Run a program to completion, or until it asks for input", cobra.ExactArgs(1),
	func(ctx context.Context, c *ayr.Controller, _ string, args []string) error {
		source, err := readSource(args[0])
		if err != nil {
			return err
		}
		return c.Run(ctx, source)
	})

var debugCmd = workspaceCommand("debug <file>", "Start a debug session and stop at the first error", cobra.ExactArgs(1),
	func(ctx context.Context, c *ayr.Controller, key string, args []string) error {
		source, err := readSource(args[0])
		if err != nil {
			return err
		}
		return c.StartDebug(ctx, key, source)
	})

var nextCmd = workspaceCommand("next [file]", "Continue the debug session to the next error", cobra.MaximumNArgs(1),
	func(ctx context.Context, c *ayr.Controller, _ string, _ []string) error {
		return c.RerunToNextError(ctx)
	})

var stepCmd = workspaceCommand("step [file]", "Execute one statement of the debug session", cobra.MaximumNArgs(1),
	func(ctx context.Context, c *ayr.Controller, _ string, _ []string) error {
		return c.Step(ctx)
	})

var backCmd = workspaceCommand("back [file]", "Go one step back in the debug history", cobra.MaximumNArgs(1),
	func(ctx context.Context, c *ayr.Controller, _ string, _ []string) error {
		return c.Back(ctx)
	})

var refreshCmd = workspaceCommand("refresh [file]", "Re-read variables and detail of the held session", cobra.MaximumNArgs(1),
	func(ctx context.Context, c *ayr.Controller, _ string, _ []string) error {
		return c.Refresh(ctx)
	})

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Print the stored state of a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := workspaceKey(cmd, args)
		if err != nil {
			return err
		}
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		snapshot, err := app.Manager.Load(cmd.Context(), key)
		if err != nil {
			return fmt.Errorf("workspace %q: %w", key, err)
		}
		format, _ := cmd.Flags().GetString("format")
		return cli.PrintView(cmd.OutOrStdout(), snapshot.View, format)
	},
}

var resetCmd = workspaceCommand("reset [file]", "Leave the session and return to idle", cobra.MaximumNArgs(1),
	func(_ context.Context, c *ayr.Controller, _ string, _ []string) error {
		c.Reset()
		return nil
	})

// inputCmd takes the answer as its last argument: "input 42" with --key, or
// "input main.ayr 42".
var inputCmd = workspaceCommand("input [file] <value>", "Answer a pending input prompt", cobra.RangeArgs(1, 2),
	func(ctx context.Context, c *ayr.Controller, _ string, args []string) error {
		return c.SubmitInput(ctx, args[len(args)-1])
	})

var tabCmd = workspaceCommand("tab [file] <name>", "Bring an inspector tab to front", cobra.RangeArgs(1, 2),
	func(_ context.Context, c *ayr.Controller, _ string, args []string) error {
		return c.SetActiveTab(args[len(args)-1])
	})

func init() {
	viewCmd.Flags().StringP("format", "f", cli.FormatAuto, fmt.Sprintf("Output format %v", cli.Formats))

	// input and tab take the workspace from the first of two arguments.
	for _, cmd := range []*cobra.Command{inputCmd, tabCmd} {
		run := cmd.RunE
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if key, _ := cmd.Flags().GetString("key"); key == "" {
					return cli.ErrNoWorkspace
				}
			}
			return run(cmd, args)
		}
	}

	rootCmd.AddCommand(runCmd, debugCmd, nextCmd, stepCmd, backCmd, refreshCmd, viewCmd, resetCmd, inputCmd, tabCmd)
}
