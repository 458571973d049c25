// Package menu implements the operator menu as a small state machine
// over an enumerated input alphabet. The terminal is injected as plain
// reader/writer pairs so the loop can be driven headless in tests.
package menu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// State identifies where the menu loop is.
type State int

// Set of menu states.
const (
	StateIdle State = iota
	StateRunningNode
	StateRunningMiner
	StateDone
)

// Choice is the input alphabet of the menu.
type Choice int

// Set of recognized inputs.
const (
	ChoiceUnknown Choice = iota
	ChoiceNode
	ChoiceMiner
	ChoiceExit
)

// ParseChoice maps one line of operator input to a Choice.
func ParseChoice(input string) Choice {
	switch strings.TrimSpace(input) {
	case "1":
		return ChoiceNode
	case "2":
		return ChoiceMiner
	case "3":
		return ChoiceExit
	}
	return ChoiceUnknown
}

// Next is the transition function. Inputs only matter in the Idle
// state; a running node returns to Idle when its process exits, which
// the loop models by resetting the state itself.
func Next(s State, c Choice) State {
	if s != StateIdle {
		return s
	}

	switch c {
	case ChoiceNode:
		return StateRunningNode
	case ChoiceMiner:
		return StateRunningMiner
	case ChoiceExit:
		return StateDone
	}

	return StateIdle
}

// Launcher runs the node binary and blocks until it exits.
type Launcher interface {
	Launch(ctx context.Context, mine bool) error
}

// Menu drives the interactive loop.
type Menu struct {
	In       io.Reader
	Out      io.Writer
	Launcher Launcher
}

// Run loops until the operator chooses exit or input ends. Node and
// miner runs block the loop; their exit returns the menu to Idle.
func (m *Menu) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(m.In)
	state := StateIdle

	for state != StateDone {
		m.prompt()

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading menu input: %w", err)
			}
			return nil
		}

		choice := ParseChoice(scanner.Text())
		state = Next(state, choice)

		switch state {
		case StateRunningNode, StateRunningMiner:
			mine := state == StateRunningMiner
			if err := m.Launcher.Launch(ctx, mine); err != nil {
				fmt.Fprintf(m.Out, "node exited with error: %v\n", err)
			} else {
				fmt.Fprintln(m.Out, "node exited")
			}
			state = StateIdle

		case StateIdle:
			if choice == ChoiceUnknown {
				fmt.Fprintln(m.Out, "Invalid option, try again.")
			}
		}
	}

	fmt.Fprintln(m.Out, "Bye.")
	return nil
}

func (m *Menu) prompt() {
	fmt.Fprintln(m.Out)
	fmt.Fprintln(m.Out, "What would you like to do?")
	fmt.Fprintln(m.Out, "  1) Run node (no mining)")
	fmt.Fprintln(m.Out, "  2) Run miner")
	fmt.Fprintln(m.Out, "  3) Exit")
	fmt.Fprint(m.Out, "> ")
}
