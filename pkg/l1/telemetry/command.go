package telemetry

import (
	"errors"
	"fmt"

	"github.com/robotalks/rig.go/pkg/l0/comm"
)

// CommandKind names an operator command.
type CommandKind string

// Commands accepted by a board.
const (
	// CmdZero re-zeroes the steering stepper.
	CmdZero CommandKind = "zero"
	// CmdSteer sets the steering like a frame direction byte.
	CmdSteer CommandKind = "steer"
	// CmdMotor sets the MotorState like a received frame.
	CmdMotor CommandKind = "motor"
)

// ErrUnknownCommand indicates a command kind not understood by the board.
var ErrUnknownCommand = errors.New("unknown command")

// Command is an operator request delivered over the broker.
type Command struct {
	Kind      CommandKind
	Direction byte
	Motor     comm.MotorState
}

// ZeroCommand creates a CmdZero command.
func ZeroCommand() Command {
	return Command{Kind: CmdZero}
}

// SteerCommand creates a CmdSteer command.
func SteerCommand(dir byte) Command {
	return Command{Kind: CmdSteer, Direction: dir}
}

// MotorCommand creates a CmdMotor command.
func MotorCommand(m comm.MotorState) Command {
	return Command{Kind: CmdMotor, Motor: m}
}

// String implements fmt.Stringer.
func (c Command) String() string {
	switch c.Kind {
	case CmdSteer:
		return fmt.Sprintf("steer(%d)", c.Direction)
	case CmdMotor:
		return fmt.Sprintf("motor(%s)", c.Motor)
	}
	return string(c.Kind)
}

// Encode serializes the command.
func (c Command) Encode() ([]byte, error) {
	o := object{}.str("cmd", string(c.Kind))
	switch c.Kind {
	case CmdZero:
	case CmdSteer:
		o.num("direction", float64(c.Direction))
	case CmdMotor:
		o.obj("motor", encodeMotor(c.Motor))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, c.Kind)
	}
	return o.marshal()
}

// DecodeCommand parses an encoded Command.
func DecodeCommand(data []byte) (c Command, err error) {
	r := unmarshal(data, &err)
	if err != nil {
		return
	}
	switch c.Kind = CommandKind(r.str("cmd")); c.Kind {
	case CmdZero:
	case CmdSteer:
		c.Direction = r.u8("direction")
	case CmdMotor:
		c.Motor = decodeMotor(r.obj("motor"))
	default:
		if err == nil {
			err = fmt.Errorf("%w: %q", ErrUnknownCommand, c.Kind)
		}
	}
	return
}

// CommandHandler executes commands on a board.
type CommandHandler interface {
	HandleCommand(Command) error
}

// HandleCommandFunc is func form of CommandHandler.
type HandleCommandFunc func(Command) error

// HandleCommand implements CommandHandler.
func (f HandleCommandFunc) HandleCommand(c Command) error {
	return f(c)
}
