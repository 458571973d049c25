package cmd

import (
	"errors"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/nocktools/nockup/business/core/menu"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Open the interactive run menu",
	RunE:  menuRun,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func menuRun(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	m := menu.Menu{
		In:       os.Stdin,
		Out:      os.Stdout,
		Launcher: newLauncher(s),
	}

	return m.Run(cmd.Context())
}
