// Package cli implements the statserve command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "statserve",
	Short:   "A concurrent HTTP server with request statistics",
	Version: version,
	Long: `Statserve is a small concurrent HTTP/1.1 server exposing informational
endpoints and aggregate request statistics, plus a built-in load driver
for exercising it.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the command tree. Called once from main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(blastCmd)
}
