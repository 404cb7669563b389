// Package actuator implements the closed-loop controller of a linear
// actuator with potentiometer feedback and a forward limit switch.
package actuator

import (
	"fmt"

	"github.com/robotalks/rig.go/pkg/hal"
)

// State is the drive state of the actuator.
type State int

// States.
const (
	Stop State = iota
	Fwd
	Rev
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Stop:
		return "stop"
	case Fwd:
		return "fwd"
	case Rev:
		return "rev"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Status is a snapshot of a Controller.
type Status struct {
	State     State
	Position  uint16
	Target    uint16
	HasTarget bool
}

// Controller seeks a target position. It's owned by the tick context:
// none of its methods are safe for concurrent use.
type Controller struct {
	Config
	Name string

	driver  Driver
	limit   hal.InputPin
	channel hal.Channel

	state     State
	target    uint16
	hasTarget bool
	position  uint16
}

// New creates a Controller. limit reads asserted while forward travel is
// still allowed.
func New(conf Config, drv Driver, limit hal.InputPin, ch hal.Channel) *Controller {
	return &Controller{Config: conf, driver: drv, limit: limit, channel: ch}
}

// Tick samples the position and advances the state machine. A failed
// sample is returned and leaves everything unchanged.
func (c *Controller) Tick(adc hal.ADC) error {
	pos, err := adc.Sample(c.channel)
	if err != nil {
		if c.Name != "" {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		return err
	}
	c.position = pos

	if c.state == Fwd && !c.limit.Read() {
		c.Stop()
		return nil
	}

	if !c.hasTarget {
		c.setState(Stop)
		return nil
	}

	p, t, db := int(pos), int(c.target), int(c.Deadband)
	switch {
	case p+db < t:
		c.GoRev()
	case p > t+db:
		c.GoFwd()
	default:
		c.Stop()
	}
	return nil
}

// Goto sets the target position. When the actuator is already within
// Window of a target different from the current one, it stops instead.
func (c *Controller) Goto(target uint16) {
	if !c.Within(target) || (c.hasTarget && c.target == target) {
		c.target, c.hasTarget = target, true
	} else {
		c.Stop()
	}
}

// GoFwd starts forward travel if the limit allows it.
func (c *Controller) GoFwd() {
	if c.state != Fwd && c.limit.Read() {
		c.setState(Fwd)
	}
}

// GoRev starts reverse travel.
func (c *Controller) GoRev() {
	c.setState(Rev)
}

// Stop halts and clears the target.
func (c *Controller) Stop() {
	c.setState(Stop)
	c.hasTarget = false
}

// Within checks the position is no further than Window from pos.
func (c *Controller) Within(pos uint16) bool {
	p, w := int(c.position), int(c.Window)
	return p+w >= int(pos) && p <= int(pos)+w
}

// Stopped reports no target is being sought.
func (c *Controller) Stopped() bool {
	return !c.hasTarget
}

// Position returns the last sampled position.
func (c *Controller) Position() uint16 {
	return c.position
}

// State returns the drive state.
func (c *Controller) State() State {
	return c.state
}

// Target returns the target if any.
func (c *Controller) Target() (uint16, bool) {
	return c.target, c.hasTarget
}

// Status takes a snapshot.
func (c *Controller) Status() Status {
	return Status{
		State:     c.state,
		Position:  c.position,
		Target:    c.target,
		HasTarget: c.hasTarget,
	}
}

func (c *Controller) setState(s State) {
	if c.state != s {
		c.state = s
		c.driver.Drive(s)
	}
}
