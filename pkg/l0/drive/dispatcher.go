package drive

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/rig.go/pkg/l0/comm"
	"github.com/robotalks/rig.go/pkg/l0/stepper"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// DispatchStats counts frames handled by a Dispatcher.
type DispatchStats struct {
	Accepted uint64
	Foreign  uint64
	Rejected uint64
}

// Dispatcher implements comm.FrameHandler for one board.
type Dispatcher struct {
	Config

	motor    *mailbox.Cell[comm.MotorState]
	steering *stepper.Controller

	accepted uint64
	foreign  uint64
	rejected uint64
}

// NewDispatcher creates a Dispatcher writing into motor and steering.
func NewDispatcher(conf Config, motor *mailbox.Cell[comm.MotorState], steering *stepper.Controller) *Dispatcher {
	return &Dispatcher{Config: conf, motor: motor, steering: steering}
}

// SteeringTarget maps a frame direction to a stepper position.
func (d *Dispatcher) SteeringTarget(dir byte) int32 {
	return int32(comm.Remap(int64(dir), 0, 255, 0, int64(d.SteeringTravel)))
}

// HandleFrame implements comm.FrameHandler.
func (d *Dispatcher) HandleFrame(ctx context.Context, f comm.Frame) {
	if f.ID != d.ID {
		atomic.AddUint64(&d.foreign, 1)
		return
	}
	atomic.AddUint64(&d.accepted, 1)
	d.motor.Set(f.MotorState)
	d.Steer(f.MotorDirection)
}

// Steer hands the steering set-point for dir to the stepper according to
// SteeringPolicy. With RejectIfFull the set-point is dropped while the
// previous one is pending and the *mailbox.FullError returned.
func (d *Dispatcher) Steer(dir byte) error {
	pos := d.SteeringTarget(dir)
	if d.SteeringPolicy != mailbox.RejectIfFull {
		d.steering.Goto(pos)
		return nil
	}
	err := d.steering.Send(stepper.GotoCommand(pos))
	if err != nil {
		// superseded by the next frame.
		atomic.AddUint64(&d.rejected, 1)
		glog.V(3).Infof("steering %d dropped: %v", pos, err)
	}
	return err
}

// Stats gets the counters. It's safe to call from any context.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Accepted: atomic.LoadUint64(&d.accepted),
		Foreign:  atomic.LoadUint64(&d.foreign),
		Rejected: atomic.LoadUint64(&d.rejected),
	}
}
