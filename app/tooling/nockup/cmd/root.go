// Package cmd contains the nockup command surface.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set by Execute before any command runs.
var (
	log   *zap.SugaredLogger
	build string
)

var rootCmd = &cobra.Command{
	Use:           "nockup",
	Short:         "Provision and operate a Nockchain node",
	Long:          "nockup installs everything a Nockchain node needs, builds the binaries from the upstream source, and runs the node or miner.\n\nSettings are read from NOCKUP_* environment variables.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the selected command.
func Execute(l *zap.SugaredLogger, b string) error {
	log = l
	build = b

	return rootCmd.Execute()
}
