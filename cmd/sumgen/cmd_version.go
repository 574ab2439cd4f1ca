package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/variant/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sumgen version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sumgen %s\n", config.Version)
	},
}
