package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/ayr/internal/cli"
	"github.com/aretw0/ayr/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP collaborator API",
	Long: `Serves workspaces over HTTP: JSON actions, a view stream over SSE,
the OpenAPI document at /openapi.yaml and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics := observability.NewMetrics(observability.WithRuntimeCollectors())
		app, err := newApp(cmd, cli.WithHooks(metrics.Hooks()))
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Serve(cmd.Context(), app, metrics, app.Config.Listen.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (default :8080)")
}
