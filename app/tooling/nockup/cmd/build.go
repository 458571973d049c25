package cmd

import (
	"github.com/nocktools/nockup/business/core/provision"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the node and wallet executables from source",
	RunE:  buildRun,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func buildRun(cmd *cobra.Command, args []string) error {
	return runSteps(cmd, provision.Build{})
}
