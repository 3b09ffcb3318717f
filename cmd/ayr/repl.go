package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/ayr/internal/cli"
)

var replCmd = &cobra.Command{
	Use:   "repl [file]",
	Short: "Drive a workspace interactively",
	Long: `Starts an interactive console on a workspace. run and debug read the file
again on every command, and a debug session is reset when the file changed.

With --json, commands are read as JSON lines ({"command":"step"}) and views are
written as JSON lines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		key, _ := cmd.Flags().GetString("key")
		jsonMode, _ := cmd.Flags().GetBool("json")
		headless, _ := cmd.Flags().GetBool("headless")
		opts := cli.REPLOptions{
			Key:      key,
			JSON:     jsonMode,
			Headless: headless,
			In:       cmd.InOrStdin(),
			Out:      cmd.OutOrStdout(),
		}
		if len(args) > 0 {
			opts.Source = args[0]
		}
		return cli.RunREPL(cmd.Context(), app, opts)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)

	replCmd.Flags().Bool("headless", false, "No banner, greeting or styling")
	replCmd.Flags().Bool("json", false, "Read and write JSON lines")
}
