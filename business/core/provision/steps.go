package provision

import (
	"context"
	"fmt"
	"os"

	"github.com/nocktools/nockup/business/core/netcheck"
	"github.com/nocktools/nockup/foundation/envfile"
	"github.com/nocktools/nockup/foundation/run"
)

// packages is the fixed set of native dependencies the nockchain build
// needs on a Debian style host.
var packages = []string{
	"curl", "iptables", "build-essential", "git", "wget", "lz4", "jq",
	"make", "gcc", "nano", "automake", "autoconf", "tmux", "htop",
	"pkg-config", "libssl-dev", "libleveldb-dev", "tar", "clang",
	"bsdmainutils", "ncdu", "unzip", "libclang-dev",
}

// SystemPackages upgrades the OS and installs the native build
// dependencies. Requires sudo.
type SystemPackages struct{}

// Name implements the Step interface.
func (SystemPackages) Name() string { return "system-packages" }

// Run implements the Step interface.
func (SystemPackages) Run(ctx context.Context, pc Context) (Result, error) {
	cmds := [][]string{
		{"apt-get", "update"},
		{"apt-get", "upgrade", "-y"},
		append([]string{"apt-get", "install", "-y"}, packages...),
	}

	for _, args := range cmds {
		cmd := run.Command{
			Name:   "sudo",
			Args:   args,
			Stdout: pc.Cfg.Stdout,
			Stderr: pc.Cfg.Stdout,
		}
		if err := pc.Runner.Run(ctx, cmd); err != nil {
			return Result{}, err
		}
	}

	return Result{Detail: fmt.Sprintf("%d packages ensured", len(packages))}, nil
}

// rustupInstall fetches and runs the rustup installer over a pinned TLS
// channel. The pipe fails when the transport cannot be negotiated.
const rustupInstall = `curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh -s -- -y`

// Toolchain probes for the Rust toolchain, installing it when absent
// and updating it when present. Either way cargo must resolve
// afterwards or provisioning cannot continue.
type Toolchain struct{}

// Name implements the Step interface.
func (Toolchain) Name() string { return "rust-toolchain" }

// Run implements the Step interface.
func (Toolchain) Run(ctx context.Context, pc Context) (Result, error) {
	cargoBin := pc.Cfg.CargoBin()

	var detail string
	if _, err := pc.Runner.LookPath("rustup", cargoBin); err != nil {
		cmd := run.Command{
			Name:   "sh",
			Args:   []string{"-c", rustupInstall},
			Stdout: pc.Cfg.Stdout,
			Stderr: pc.Cfg.Stdout,
		}
		if err := pc.Runner.Run(ctx, cmd); err != nil {
			return Result{}, fmt.Errorf("installing rust toolchain: %w", err)
		}
		detail = "rust toolchain installed"
	} else {
		cmd := run.Command{
			Name:      "rustup",
			Args:      []string{"update"},
			ExtraPath: []string{cargoBin},
			Stdout:    pc.Cfg.Stdout,
			Stderr:    pc.Cfg.Stdout,
		}
		if err := pc.Runner.Run(ctx, cmd); err != nil {
			return Result{}, fmt.Errorf("updating rust toolchain: %w", err)
		}
		detail = "rust toolchain updated"
	}

	// The build driver has to be resolvable now. If it is not, the
	// install did not take and nothing downstream can work.
	if _, err := pc.Runner.LookPath("cargo", cargoBin); err != nil {
		return Result{}, fmt.Errorf("cargo not resolvable after toolchain setup: %w", err)
	}

	return Result{Detail: detail}, nil
}

// SourceSync clones the upstream nockchain repository on first run and
// pulls updates afterwards, then seeds the configuration file and its
// logging defaults.
type SourceSync struct{}

// Name implements the Step interface.
func (SourceSync) Name() string { return "source-sync" }

// Run implements the Step interface.
func (SourceSync) Run(ctx context.Context, pc Context) (Result, error) {
	dir := pc.Cfg.InstallDir

	var detail string
	switch _, err := os.Stat(dir); {
	case err == nil:
		cmd := run.Command{
			Name:   "git",
			Args:   []string{"-C", dir, "pull"},
			Stdout: pc.Cfg.Stdout,
			Stderr: pc.Cfg.Stdout,
		}
		if err := pc.Runner.Run(ctx, cmd); err != nil {
			return Result{}, fmt.Errorf("updating source: %w", err)
		}
		detail = "source updated in place"

	case os.IsNotExist(err):
		cmd := run.Command{
			Name:   "git",
			Args:   []string{"clone", pc.Cfg.RepoURL, dir},
			Stdout: pc.Cfg.Stdout,
			Stderr: pc.Cfg.Stdout,
		}
		if err := pc.Runner.Run(ctx, cmd); err != nil {
			return Result{}, fmt.Errorf("cloning source: %w", err)
		}
		detail = "source cloned"

	default:
		return Result{}, fmt.Errorf("inspecting install dir: %w", err)
	}

	if err := envfile.Seed(dir); err != nil {
		return Result{}, err
	}
	if err := envfile.EnsureLoggingDefaults(envfile.Path(dir)); err != nil {
		return Result{}, err
	}

	return Result{Detail: detail}, nil
}

// buildTargets is the fixed build order. install-hoonc comes first
// because the main build depends on the hoon compiler it produces.
var buildTargets = []string{
	"install-hoonc",
	"build",
	"install-nockchain-wallet",
	"install-nockchain",
}

// Build runs the four make targets that produce the node and wallet
// executables.
type Build struct{}

// Name implements the Step interface.
func (Build) Name() string { return "build" }

// Run implements the Step interface.
func (Build) Run(ctx context.Context, pc Context) (Result, error) {
	for _, target := range buildTargets {
		cmd := run.Command{
			Name:      "make",
			Args:      []string{target},
			Dir:       pc.Cfg.InstallDir,
			ExtraPath: []string{pc.Cfg.CargoBin()},
			Stdout:    pc.Cfg.Stdout,
			Stderr:    pc.Cfg.Stdout,
		}
		if err := pc.Runner.Run(ctx, cmd); err != nil {
			return Result{}, fmt.Errorf("make %s: %w", target, err)
		}
	}

	return Result{Detail: fmt.Sprintf("%d targets built", len(buildTargets))}, nil
}

// PortCheck probes the peering port through an external echo service.
// The outcome is advisory and never aborts the pipeline.
type PortCheck struct{}

// Name implements the Step interface.
func (PortCheck) Name() string { return "port-check" }

// Run implements the Step interface.
func (PortCheck) Run(ctx context.Context, pc Context) (Result, error) {
	res := netcheck.CheckPort(pc.Cfg.ProbeHost, pc.Cfg.PeerPort, pc.Cfg.ProbeTimeout)

	if !res.Reachable {
		return Result{Status: StatusWarning, Detail: res.Detail}, nil
	}

	return Result{Detail: res.Detail}, nil
}
