// Package provision implements the ordered steps that take a bare
// Linux server to a runnable Nockchain node: system packages, the Rust
// toolchain, the upstream source tree, the node configuration file, a
// mining key, the build targets, and an advisory reachability probe.
//
// Steps are idempotent and run strictly in order. The driver stops at
// the first failing step and returns structured results so callers can
// report what happened without parsing logs.
package provision

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nocktools/nockup/foundation/run"
	"go.uber.org/zap"
)

// Set of statuses a step can report.
const (
	StatusOK      = "OK"
	StatusSkipped = "SKIPPED"
	StatusWarning = "WARNING"
	StatusFailed  = "FAILED"
)

// Result carries the outcome of a single step.
type Result struct {
	Step   string
	Status string
	Detail string
}

// Config holds the operational settings every step reads.
type Config struct {
	HomeDir      string
	InstallDir   string
	RepoURL      string
	WalletBinary string
	ProbeHost    string
	PeerPort     int
	ProbeTimeout time.Duration

	// Stdout mirrors subprocess output to the operator terminal.
	Stdout io.Writer
}

// CargoBin returns the directory the Rust installer places binaries in.
// It is prepended to PATH for every build related command so a fresh
// install is usable without a new shell session.
func (c Config) CargoBin() string {
	return filepath.Join(c.HomeDir, ".cargo", "bin")
}

// Context carries the dependencies steps execute against.
type Context struct {
	Log    *zap.SugaredLogger
	Runner run.Runner
	Cfg    Config
}

// Step is implemented by each provisioning stage. Run returns a Result
// describing what happened; a non-nil error aborts the pipeline.
type Step interface {
	Name() string
	Run(ctx context.Context, pc Context) (Result, error)
}

// Pipeline executes an ordered set of steps with fail-fast semantics.
type Pipeline struct {
	log    *zap.SugaredLogger
	runner run.Runner
	cfg    Config
	steps  []Step
}

// New constructs a Pipeline. When no steps are provided the full
// default provisioning order is used.
func New(log *zap.SugaredLogger, runner run.Runner, cfg Config, steps ...Step) *Pipeline {
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}
	if len(steps) == 0 {
		steps = DefaultSteps()
	}

	return &Pipeline{
		log:    log,
		runner: runner,
		cfg:    cfg,
		steps:  steps,
	}
}

// DefaultSteps returns the full provisioning order.
func DefaultSteps() []Step {
	return []Step{
		SystemPackages{},
		Toolchain{},
		SourceSync{},
		MiningKey{},
		Build{},
		PortCheck{},
	}
}

// Run executes the steps in order. The first failing step stops the
// pipeline; the returned results include the failure so callers can
// report partial progress.
func (p *Pipeline) Run(ctx context.Context) ([]Result, error) {
	runID := uuid.NewString()

	pc := Context{
		Log:    p.log,
		Runner: p.runner,
		Cfg:    p.cfg,
	}

	results := make([]Result, 0, len(p.steps))

	for _, step := range p.steps {
		p.log.Infow("provision", "status", "step started", "run", runID, "step", step.Name())

		res, err := step.Run(ctx, pc)
		res.Step = step.Name()

		if err != nil {
			res.Status = StatusFailed
			res.Detail = err.Error()
			results = append(results, res)

			p.log.Errorw("provision", "status", "step failed", "run", runID, "step", step.Name(), "ERROR", err)
			return results, fmt.Errorf("step %s: %w", step.Name(), err)
		}

		if res.Status == "" {
			res.Status = StatusOK
		}
		results = append(results, res)

		p.log.Infow("provision", "status", "step complete", "run", runID, "step", step.Name(), "result", res.Status, "detail", res.Detail)
	}

	return results, nil
}
