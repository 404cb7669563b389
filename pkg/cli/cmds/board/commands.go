// Package board exposes operator commands of a driver board.
package board

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rig.go/pkg/cli/sh"
	"github.com/robotalks/rig.go/pkg/l0/comm"
	"github.com/robotalks/rig.go/pkg/l1/telemetry"
)

// ParseByte parses a decimal value in [0, 255].
func ParseByte(name, s string) (byte, error) {
	val, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: %q", name, s)
	}
	return byte(val), nil
}

// ParseMotorState parses KIND [POWER].
func ParseMotorState(args []string) (state comm.MotorState, err error) {
	if len(args) < 1 {
		return state, fmt.Errorf("KIND required")
	}
	kind, ok := comm.ParseMotorKind(args[0])
	if !ok {
		return state, fmt.Errorf("Invalid KIND: %q, expect idle, fwd or rev", args[0])
	}
	state.Kind = kind
	if len(args) > 1 {
		state.Power, err = ParseByte("POWER", args[1])
	}
	return
}

var (
	// ZeroCmd re-zeroes the steering.
	ZeroCmd = ishell.Cmd{
		Name:    "zero",
		Aliases: []string{"z"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, telemetry.ZeroCommand())
		}),
	}

	// SteerCmd sets the steering.
	SteerCmd = ishell.Cmd{
		Name:    "steer",
		Aliases: []string{"st"},
		Help:    "DIR(0-255)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DIR required"))
				return
			}
			dir, err := ParseByte("DIR", c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, telemetry.SteerCommand(dir))
		}),
	}

	// MotorCmd sets the motor state.
	MotorCmd = ishell.Cmd{
		Name:    "motor",
		Aliases: []string{"m"},
		Help:    "idle|fwd|rev [POWER(0-255)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			state, err := ParseMotorState(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, telemetry.MotorCommand(state))
		}),
	}
)

func init() {
	sh.AddCmds(
		&ZeroCmd,
		&SteerCmd,
		&MotorCmd,
	)
}
