package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ayr"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ayr",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ayr version %s\n", ayr.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
