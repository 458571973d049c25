package cmd

import (
	"github.com/nocktools/nockup/business/core/provision"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a wallet keypair and record the mining public key",
	Long:  "keygen invokes the external nockchain-wallet binary and writes the extracted public key into the node's .env file. If a key is already configured the command is a no-op.",
	RunE:  keygenRun,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func keygenRun(cmd *cobra.Command, args []string) error {
	return runSteps(cmd, provision.MiningKey{})
}
