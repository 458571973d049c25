// Package node launches the externally built Nockchain binaries. The
// node process inherits the configuration file as environment
// variables and peers over QUIC on the configured public address. All
// chain behavior lives in the binary; this package only constructs the
// invocation and streams its output.
package node

import (
	"context"
	"fmt"
	"io"

	"github.com/nocktools/nockup/foundation/envfile"
	"github.com/nocktools/nockup/foundation/events"
	"github.com/nocktools/nockup/foundation/run"
	"go.uber.org/zap"
)

// Config holds everything needed to launch the node binary.
type Config struct {
	Log        *zap.SugaredLogger
	Runner     run.Runner
	Evts       *events.Events
	InstallDir string
	Binary     string
	PublicIP   string
	PeerPort   int

	// ExtraPath holds directories searched for the binary beyond PATH,
	// typically the cargo install directory.
	ExtraPath []string

	// Stdout and Stderr mirror node output to the operator terminal.
	Stdout io.Writer
	Stderr io.Writer
}

// Node launches and supervises a single node process at a time.
type Node struct {
	cfg Config
}

// New constructs a Node from the configuration.
func New(cfg Config) *Node {
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if cfg.Stderr == nil {
		cfg.Stderr = cfg.Stdout
	}

	return &Node{
		cfg: cfg,
	}
}

// Args returns the exact argument list for a node invocation.
func (n *Node) Args(mine bool) []string {
	args := []string{
		"--bind",
		fmt.Sprintf("/ip4/%s/udp/%d/quic-v1", n.cfg.PublicIP, n.cfg.PeerPort),
	}
	if mine {
		args = append(args, "--mine")
	}

	return args
}

// Launch starts the node process and blocks until it exits. Output is
// mirrored to the configured writers and fanned out line by line to
// any event subscribers.
func (n *Node) Launch(ctx context.Context, mine bool) error {
	env, err := envfile.Environ(envfile.Path(n.cfg.InstallDir))
	if err != nil {
		return fmt.Errorf("loading node environment: %w", err)
	}

	stdout := n.cfg.Stdout
	stderr := n.cfg.Stderr
	if n.cfg.Evts != nil {
		ew := events.NewWriter(n.cfg.Evts)
		defer ew.Flush()
		stdout = io.MultiWriter(stdout, ew)
		stderr = io.MultiWriter(stderr, ew)
	}

	cmd := run.Command{
		Name:      n.cfg.Binary,
		Args:      n.Args(mine),
		Dir:       n.cfg.InstallDir,
		Env:       env,
		ExtraPath: n.cfg.ExtraPath,
		Stdout:    stdout,
		Stderr:    stderr,
	}

	n.cfg.Log.Infow("node", "status", "starting", "binary", n.cfg.Binary, "mine", mine, "bind", cmd.Args[1])
	defer n.cfg.Log.Infow("node", "status", "exited", "binary", n.cfg.Binary)

	return n.cfg.Runner.Run(ctx, cmd)
}
