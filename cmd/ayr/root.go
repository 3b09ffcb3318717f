package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/ayr/internal/cli"
	"github.com/aretw0/ayr/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ayr",
	Short: "ayr drives programs on a remote AYR runtime",
	Long: `ayr runs and debugs programs on a remote stepping interpreter.

Workspaces are persisted between invocations, so a debug session started with
'ayr debug main.ayr' can be stepped with 'ayr step main.ayr'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to the config file (default ./ayr.yaml if present)")
	flags.String("server", "", "Base URL of the AYR runtime")
	flags.Duration("timeout", 0, "Timeout of every runtime call")
	flags.String("store", "", "Workspace store: file, memory or redis")
	flags.String("store-dir", "", "Directory of the file store")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.StringP("key", "k", "", "Workspace key (defaults to the source file path)")
}

// loadConfig resolves the configuration from the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	o := config.Overrides{}
	o.ServerURL, _ = cmd.Flags().GetString("server")
	o.Timeout, _ = cmd.Flags().GetDuration("timeout")
	o.StoreKind, _ = cmd.Flags().GetString("store")
	o.StoreDir, _ = cmd.Flags().GetString("store-dir")
	o.LogLevel, _ = cmd.Flags().GetString("log-level")
	if cmd.Flags().Lookup("listen") != nil {
		o.Listen, _ = cmd.Flags().GetString("listen")
	}
	return config.Resolve(path, o)
}

func newApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cfg, opts...)
}

// workspaceKey resolves --key or the optional source argument.
func workspaceKey(cmd *cobra.Command, args []string) (string, error) {
	key, _ := cmd.Flags().GetString("key")
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	return cli.ResolveKey(key, path)
}
