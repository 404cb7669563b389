// Package stepper drives an open-loop stepper axis bounded by two limit
// switches. Stepper runs in the background context and owns the position;
// other contexts talk to it through Controller.
package stepper

import (
	"fmt"

	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// Action is what the stepper is busy with.
type Action int

// Actions.
const (
	Ready Action = iota
	Zeroing
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case Ready:
		return "ready"
	case Zeroing:
		return "zeroing"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// State is published by the Stepper on every iteration.
type State struct {
	Position int32
	Action   Action
}

// CommandKind identifies a Command.
type CommandKind int

// Command kinds.
const (
	CmdZero CommandKind = iota
	CmdGoto
)

// Command is a one-shot request to the Stepper.
type Command struct {
	Kind     CommandKind
	Position int32
}

// ZeroCommand requests a calibration against the left limit.
func ZeroCommand() Command {
	return Command{Kind: CmdZero}
}

// GotoCommand requests a new target.
func GotoCommand(pos int32) Command {
	return Command{Kind: CmdGoto, Position: pos}
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if c.Kind == CmdGoto {
		return fmt.Sprintf("goto(%d)", c.Position)
	}
	return "zero"
}

// Controller is the cross-context handle of a Stepper.
type Controller struct {
	target   *mailbox.Cell[int32]
	commands *mailbox.Slot[Command]
	state    *mailbox.Cell[State]
}

// NewController creates a Controller with target 0.
func NewController(cs hal.CriticalSection) *Controller {
	return &Controller{
		target:   mailbox.NewCellWith[int32](cs, 0),
		commands: mailbox.NewSlot[Command](cs),
		state:    mailbox.NewCellWith(cs, State{Action: Ready}),
	}
}

// Goto overwrites the target set-point. It never fails.
func (c *Controller) Goto(pos int32) {
	c.target.Set(pos)
}

// Send queues a one-shot command. It fails with *mailbox.FullError if the
// previous command hasn't been taken yet.
func (c *Controller) Send(cmd Command) error {
	return c.commands.Send(cmd)
}

// Zero queues a zero command.
func (c *Controller) Zero() error {
	return c.Send(ZeroCommand())
}

// Pending returns the command not yet taken by the Stepper.
func (c *Controller) Pending() (Command, bool) {
	return c.commands.Peek()
}

// Target returns the current target set-point.
func (c *Controller) Target() int32 {
	pos, _ := c.target.Get()
	return pos
}

// State returns the last published state.
func (c *Controller) State() State {
	s, _ := c.state.Get()
	return s
}
