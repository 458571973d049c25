package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/nocktools/nockup/business/core/provision"
	"github.com/nocktools/nockup/foundation/run"
	"github.com/spf13/cobra"
)

// runSteps loads the settings and executes the given pipeline steps,
// or the full default pipeline when none are named. Results are always
// printed, including the failing step.
func runSteps(cmd *cobra.Command, steps ...provision.Step) error {
	s, err := loadSettings()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	p := provision.New(log, run.ExecRunner{}, s.provisionConfig(), steps...)
	results, err := p.Run(cmd.Context())

	printResults(os.Stdout, results)
	return err
}

func printResults(w io.Writer, results []provision.Result) {
	fmt.Fprintln(w)
	for _, r := range results {
		fmt.Fprintf(w, "  %-16s %-8s %s\n", r.Step, r.Status, r.Detail)
	}
	fmt.Fprintln(w)
}
