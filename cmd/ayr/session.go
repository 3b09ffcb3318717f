package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ayr/internal/presentation/report"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted workspaces",
	Long:  `List, inspect, and remove workspaces kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		keys, err := app.Manager.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list workspaces: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No workspaces found.")
			return nil
		}

		fmt.Fprintln(out, "Workspaces:")
		for _, key := range keys {
			snapshot, err := app.Manager.Load(cmd.Context(), key)
			if err != nil {
				fmt.Fprintf(out, "- %s (unreadable: %v)\n", key, err)
				continue
			}
			fmt.Fprintf(out, "- %s [%s] saved %s\n", key, report.Header(snapshot.View), snapshot.SavedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Print the stored snapshot of a workspace as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		snapshot, err := app.Manager.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load workspace '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove one or more workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) > 0) {
			return fmt.Errorf("pass workspace keys or --all")
		}

		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		keys := args
		if all {
			if keys, err = app.Manager.List(cmd.Context()); err != nil {
				return fmt.Errorf("failed to list workspaces: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, key := range keys {
			if err := app.Manager.Delete(cmd.Context(), key); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", key, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Removed workspace '%s'\n", key)
		}
		if failed > 0 {
			return fmt.Errorf("%d workspace(s) could not be removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionRmCmd.Flags().Bool("all", false, "Remove every workspace")
}
