// Package run executes external commands on behalf of the provisioning
// steps. Steps depend on the Runner interface so tests can script
// command results without touching the host.
package run

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command describes a single external command invocation.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE pairs appended to the process environment.
	Env []string

	// ExtraPath holds directories prepended to PATH for this command,
	// so binaries installed earlier in the pipeline resolve without a
	// new shell session.
	ExtraPath []string

	// Stdout and Stderr mirror the command output when set. Stdin is
	// attached when set.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// Line returns the human readable command line, used in errors and logs.
func (c Command) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner abstracts external command execution.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
	Output(ctx context.Context, cmd Command) (string, error)
	LookPath(name string, extraPath ...string) (string, error)
}

// ExecRunner runs commands on the host with os/exec.
type ExecRunner struct{}

// Run executes the command, streaming output to the configured writers,
// and blocks until it exits.
func (ExecRunner) Run(ctx context.Context, cmd Command) error {
	ec := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	ec.Dir = cmd.Dir
	ec.Env = buildEnv(cmd)
	ec.Stdout = cmd.Stdout
	ec.Stderr = cmd.Stderr
	ec.Stdin = cmd.Stdin

	if err := ec.Run(); err != nil {
		return fmt.Errorf("running %q: %w", cmd.Line(), err)
	}

	return nil
}

// Output executes the command and captures its standard output as text.
// Standard error is folded into the returned error on failure.
func (ExecRunner) Output(ctx context.Context, cmd Command) (string, error) {
	ec := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	ec.Dir = cmd.Dir
	ec.Env = buildEnv(cmd)
	ec.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	ec.Stdout = &stdout
	ec.Stderr = &stderr

	if err := ec.Run(); err != nil {
		return stdout.String(), fmt.Errorf("running %q: %w: %s", cmd.Line(), err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// LookPath resolves a binary on the current PATH, then in any of the
// extra directories.
func (ExecRunner) LookPath(name string, extraPath ...string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	for _, dir := range extraPath {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%q: %w", name, exec.ErrNotFound)
}

func buildEnv(cmd Command) []string {
	env := append(os.Environ(), cmd.Env...)

	if len(cmd.ExtraPath) > 0 {
		path := strings.Join(cmd.ExtraPath, string(os.PathListSeparator))
		if current := os.Getenv("PATH"); current != "" {
			path += string(os.PathListSeparator) + current
		}
		env = append(env, "PATH="+path)
	}

	return env
}
