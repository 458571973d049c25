package run

import (
	"context"
	"fmt"
	"os/exec"
	"slices"
)

// Response scripts the outcome of a recorded command.
type Response struct {
	Output string
	Err    error
}

// Recorder is a Runner for tests. It records every command it is asked
// to execute and answers from a scripted set of responses keyed by the
// full command line. Commands without a scripted response succeed with
// empty output.
type Recorder struct {
	Responses map[string]Response

	// Missing lists binary names LookPath reports as absent.
	Missing []string

	Calls []Command
}

// Run records the command and returns its scripted error.
func (r *Recorder) Run(ctx context.Context, cmd Command) error {
	r.Calls = append(r.Calls, cmd)
	return r.Responses[cmd.Line()].Err
}

// Output records the command and returns its scripted output.
func (r *Recorder) Output(ctx context.Context, cmd Command) (string, error) {
	r.Calls = append(r.Calls, cmd)
	resp := r.Responses[cmd.Line()]
	return resp.Output, resp.Err
}

// LookPath resolves every binary not listed as missing.
func (r *Recorder) LookPath(name string, extraPath ...string) (string, error) {
	if slices.Contains(r.Missing, name) {
		return "", fmt.Errorf("%q: %w", name, exec.ErrNotFound)
	}
	return "/usr/local/bin/" + name, nil
}

// Lines returns the command lines recorded so far, in execution order.
func (r *Recorder) Lines() []string {
	lines := make([]string, len(r.Calls))
	for i, cmd := range r.Calls {
		lines[i] = cmd.Line()
	}
	return lines
}
