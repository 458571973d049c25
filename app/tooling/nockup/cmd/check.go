package cmd

import (
	"github.com/nocktools/nockup/business/core/provision"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe whether the peering UDP port is reachable",
	Long:  "check sends a UDP probe through an external echo service. The result is advisory; a warning only means the port could not be confirmed open.",
	RunE:  checkRun,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkRun(cmd *cobra.Command, args []string) error {
	return runSteps(cmd, provision.PortCheck{})
}
