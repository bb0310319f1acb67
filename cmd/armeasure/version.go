package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/armeasure/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "armeasure", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
