package cmd

import (
	"errors"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/nocktools/nockup/business/core/menu"
	"github.com/nocktools/nockup/business/core/provision"
	"github.com/nocktools/nockup/foundation/run"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Provision the server end to end, then open the run menu",
	RunE:  installRun,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func installRun(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	p := provision.New(log, run.ExecRunner{}, s.provisionConfig())
	results, err := p.Run(cmd.Context())
	printResults(os.Stdout, results)
	if err != nil {
		return err
	}

	m := menu.Menu{
		In:       os.Stdin,
		Out:      os.Stdout,
		Launcher: newLauncher(s),
	}

	return m.Run(cmd.Context())
}
