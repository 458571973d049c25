package cmd

import (
	"errors"

	"github.com/ardanlabs/conf/v3"
	"github.com/spf13/cobra"
)

var mine bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the node once, blocking until it exits",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&mine, "mine", false, "run with mining enabled")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	return newLauncher(s).Launch(cmd.Context(), mine)
}
