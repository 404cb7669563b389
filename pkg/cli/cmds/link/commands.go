// Package link talks frames directly on the serial link, bypassing the
// remote board.
package link

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rig.go/pkg/cli/cmds/board"
	"github.com/robotalks/rig.go/pkg/cli/sh"
	"github.com/robotalks/rig.go/pkg/hal/serial"
	"github.com/robotalks/rig.go/pkg/l0/comm"
)

var (
	portName string
	portBaud = serial.DefaultBaudRate

	portLock sync.Mutex
	port     *serial.Port
)

func init() {
	flag.StringVar(&portName, "link", portName, "Serial device of the rig link, empty to find one")
	flag.IntVar(&portBaud, "link-baud", portBaud, "Baud rate of the rig link")
}

// Port opens the link port on first use.
func Port() (*serial.Port, error) {
	portLock.Lock()
	defer portLock.Unlock()
	if port != nil {
		return port, nil
	}
	var err error
	if portName == "" {
		port, err = serial.Find(portBaud)
	} else {
		port, err = serial.Open(portName, portBaud)
	}
	return port, err
}

// ParseFrame parses ID KIND POWER DIR.
func ParseFrame(args []string) (f comm.Frame, err error) {
	if len(args) < 4 {
		return f, fmt.Errorf("ID KIND POWER DIR required")
	}
	if f.ID, err = board.ParseByte("ID", args[0]); err != nil {
		return
	}
	if f.MotorState, err = board.ParseMotorState(args[1:3]); err != nil {
		return
	}
	f.MotorDirection, err = board.ParseByte("DIR", args[3])
	return
}

var (
	// FrameCmd sends one frame.
	FrameCmd = ishell.Cmd{
		Name:    "link.frame",
		Aliases: []string{"lf"},
		Help:    "ID idle|fwd|rev POWER DIR",
		Func: func(c *ishell.Context) {
			f, err := ParseFrame(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			p, err := Port()
			if err != nil {
				c.Err(err)
				return
			}
			if err := f.Send(p); err != nil {
				c.Err(err)
				return
			}
			if sh.ShellFrom(c).OutputJSON {
				sh.PrintJSON(c, map[string]string{"sent": f.String()})
				return
			}
			c.Println(f.String())
		},
	}

	// SniffCmd prints the frames received on the link.
	SniffCmd = ishell.Cmd{
		Name:    "link.sniff",
		Aliases: []string{"ls"},
		Help:    "[SECONDS]",
		Func: func(c *ishell.Context) {
			dur := 5 * time.Second
			if len(c.Args) > 0 {
				secs, err := strconv.ParseFloat(c.Args[0], 64)
				if err != nil || secs <= 0 {
					c.Err(fmt.Errorf("Invalid SECONDS: %q", c.Args[0]))
					return
				}
				dur = time.Duration(secs * float64(time.Second))
			}
			p, err := Port()
			if err != nil {
				c.Err(err)
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), dur)
			defer cancel()
			link := comm.NewLink(p, comm.HandleFrameFunc(func(_ context.Context, f comm.Frame) {
				c.Println(f.String())
			}))
			if err := link.Run(ctx); err != nil && err != context.DeadlineExceeded {
				c.Err(err)
				return
			}
			stats := link.Stats()
			c.Printf("%d frames in %d bytes\n", stats.Frames, stats.Bytes)
		},
	}
)

func init() {
	sh.AddCmds(
		&FrameCmd,
		&SniffCmd,
	)
}
