package menu_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nocktools/nockup/business/core/menu"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type fakeLauncher struct {
	calls []bool
	err   error
}

func (f *fakeLauncher) Launch(ctx context.Context, mine bool) error {
	f.calls = append(f.calls, mine)
	return f.err
}

func TestTransitions(t *testing.T) {
	type table struct {
		state  menu.State
		choice menu.Choice
		next   menu.State
	}

	tt := []table{
		{menu.StateIdle, menu.ChoiceNode, menu.StateRunningNode},
		{menu.StateIdle, menu.ChoiceMiner, menu.StateRunningMiner},
		{menu.StateIdle, menu.ChoiceExit, menu.StateDone},
		{menu.StateIdle, menu.ChoiceUnknown, menu.StateIdle},
		{menu.StateRunningNode, menu.ChoiceExit, menu.StateRunningNode},
	}

	t.Log("Given the need to validate the menu transition table.")
	{
		for testID, tst := range tt {
			next := menu.Next(tst.state, tst.choice)
			if next != tst.next {
				t.Fatalf("\t%s\tTest %d:\tShould transition to %v: got %v", failed, testID, tst.next, next)
			}
			t.Logf("\t%s\tTest %d:\tShould transition to %v.", success, testID, tst.next)
		}
	}
}

func TestParseChoice(t *testing.T) {
	t.Log("Given the need to map operator input to the alphabet.")
	{
		if menu.ParseChoice(" 1 ") != menu.ChoiceNode {
			t.Fatalf("\t%s\tShould trim whitespace around valid input.", failed)
		}
		t.Logf("\t%s\tShould trim whitespace around valid input.", success)

		if menu.ParseChoice("9") != menu.ChoiceUnknown {
			t.Fatalf("\t%s\tShould treat other input as unknown.", failed)
		}
		t.Logf("\t%s\tShould treat other input as unknown.", success)
	}
}

func TestRun(t *testing.T) {
	t.Log("Given the need to drive the menu with scripted input.")
	{
		t.Logf("\tTest 0:\tWhen the operator types 9, 1, 2, 3.")
		{
			var out bytes.Buffer
			var launcher fakeLauncher

			m := menu.Menu{
				In:       strings.NewReader("9\n1\n2\n3\n"),
				Out:      &out,
				Launcher: &launcher,
			}

			if err := m.Run(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould exit cleanly: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould exit cleanly.", success)

			if !strings.Contains(out.String(), "Invalid option") {
				t.Fatalf("\t%s\tTest 0:\tShould reprompt on invalid input.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reprompt on invalid input.", success)

			if len(launcher.calls) != 2 || launcher.calls[0] != false || launcher.calls[1] != true {
				t.Fatalf("\t%s\tTest 0:\tShould run the node then the miner: got %v", failed, launcher.calls)
			}
			t.Logf("\t%s\tTest 0:\tShould run the node then the miner.", success)
		}

		t.Logf("\tTest 1:\tWhen input ends without an exit choice.")
		{
			var out bytes.Buffer
			m := menu.Menu{
				In:       strings.NewReader(""),
				Out:      &out,
				Launcher: &fakeLauncher{},
			}

			if err := m.Run(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould treat EOF as exit: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould treat EOF as exit.", success)
		}

		t.Logf("\tTest 2:\tWhen the node exits with an error.")
		{
			var out bytes.Buffer
			launcher := fakeLauncher{err: context.DeadlineExceeded}

			m := menu.Menu{
				In:       strings.NewReader("1\n3\n"),
				Out:      &out,
				Launcher: &launcher,
			}

			if err := m.Run(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould return to the menu after a node failure: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould return to the menu after a node failure.", success)

			if !strings.Contains(out.String(), "node exited with error") {
				t.Fatalf("\t%s\tTest 2:\tShould report the node failure.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould report the node failure.", success)
		}
	}
}
