package drive

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// Traveler is what Calibrator needs from an actuator.Controller.
type Traveler interface {
	Goto(uint16)
	Stop()
	Position() uint16
}

// Calibration holds the measured end positions of both actuators.
type Calibration struct {
	GearRev     uint16 `yaml:"gear_rev"`
	GearFwd     uint16 `yaml:"gear_fwd"`
	ThrottleRev uint16 `yaml:"throttle_rev"`
	ThrottleFwd uint16 `yaml:"throttle_fwd"`
}

// String implements fmt.Stringer.
func (c Calibration) String() string {
	return fmt.Sprintf("gear rev=%d fwd=%d, throttle rev=%d fwd=%d",
		c.GearRev, c.GearFwd, c.ThrottleRev, c.ThrottleFwd)
}

type calibrationPhase int

const (
	phaseGearRev calibrationPhase = iota
	phaseGearFwd
	phaseThrottleRev
	phaseThrottleFwd
	phaseDone
)

// DefaultDwell is how long each actuator travels toward an end.
const DefaultDwell = 5 * time.Second

// Calibrator drives each actuator to both ends in turn and records where
// it settles. It replaces Sequencer in the tick context.
type Calibrator struct {
	Gear     Traveler
	Throttle Traveler
	// Dwell is the travel time per end.
	Dwell time.Duration
	// FullScale is the target used for reverse travel.
	FullScale uint16

	phase   calibrationPhase
	started time.Time
	result  Calibration
	results *mailbox.Cell[Calibration]
	doneCh  chan struct{}
}

// NewCalibrator creates a Calibrator.
func NewCalibrator(cs hal.CriticalSection, gear, throttle Traveler, fullScale uint16) *Calibrator {
	return &Calibrator{
		Gear:      gear,
		Throttle:  throttle,
		Dwell:     DefaultDwell,
		FullScale: fullScale,
		results:   mailbox.NewCell[Calibration](cs),
		doneCh:    make(chan struct{}),
	}
}

// Done is closed when calibration completes.
func (c *Calibrator) Done() <-chan struct{} {
	return c.doneCh
}

// Result returns the calibration once done.
func (c *Calibrator) Result() (Calibration, bool) {
	return c.results.Get()
}

func (c *Calibrator) current() (Traveler, uint16, *uint16) {
	switch c.phase {
	case phaseGearRev:
		return c.Gear, c.FullScale, &c.result.GearRev
	case phaseGearFwd:
		return c.Gear, 0, &c.result.GearFwd
	case phaseThrottleRev:
		return c.Throttle, c.FullScale, &c.result.ThrottleRev
	}
	return c.Throttle, 0, &c.result.ThrottleFwd
}

// Control implements fx.Controller.
func (c *Calibrator) Control(cc fx.ControlContext) error {
	c.Advance(cc.Time())
	return nil
}

// Advance runs the state machine at time now.
func (c *Calibrator) Advance(now time.Time) {
	if c.phase == phaseDone {
		return
	}
	act, target, record := c.current()
	if c.started.IsZero() {
		act.Stop()
		act.Goto(target)
		c.started = now
		return
	}
	if now.Sub(c.started) < c.Dwell {
		return
	}
	*record = act.Position()
	act.Stop()
	c.phase++
	c.started = time.Time{}
	if c.phase == phaseDone {
		glog.Infof("calibrated: %s", c.result)
		c.results.Set(c.result)
		close(c.doneCh)
		return
	}
	c.Advance(now)
}
