package cmd

import (
	"github.com/nocktools/nockup/business/core/provision"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or update the nockchain source and seed its config",
	RunE:  syncRun,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func syncRun(cmd *cobra.Command, args []string) error {
	return runSteps(cmd, provision.SourceSync{})
}
