// This program provisions a server to build and run a Nockchain node
// and drives the node once it is built.
package main

import (
	"fmt"
	"os"

	"github.com/nocktools/nockup/app/tooling/nockup/cmd"
	"github.com/nocktools/nockup/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NOCKUP")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	log.Infow("starting tool", "version", build)
	defer log.Infow("shutdown complete")

	return cmd.Execute(log, build)
}
