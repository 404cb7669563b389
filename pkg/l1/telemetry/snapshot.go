// Package telemetry publishes board snapshots over MQTT and accepts
// operator commands. Payloads are protobuf encoded google.protobuf.Struct
// values so generic tools can read them.
package telemetry

import (
	"fmt"
	"time"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/l0/actuator"
	"github.com/robotalks/rig.go/pkg/l0/comm"
	"github.com/robotalks/rig.go/pkg/l0/drive"
	"github.com/robotalks/rig.go/pkg/l0/stepper"
)

// Snapshot is the observable state of a driver board at one tick.
type Snapshot struct {
	Time           time.Time
	Tick           uint64
	Gear           actuator.Status
	Throttle       actuator.Status
	Steering       stepper.State
	SteeringTarget int32
	Motor          comm.MotorState
	Link           comm.LinkStats
	Dispatch       drive.DispatchStats
	Loop           fx.LoopStats
}

// String implements fmt.Stringer.
func (s Snapshot) String() string {
	return fmt.Sprintf("#%d motor=%s gear=%s@%d throttle=%s@%d steering=%s@%d/%d frames=%d",
		s.Tick, s.Motor,
		s.Gear.State, s.Gear.Position,
		s.Throttle.State, s.Throttle.Position,
		s.Steering.Action, s.Steering.Position, s.SteeringTarget,
		s.Link.Frames)
}

// Encode serializes the snapshot.
func (s Snapshot) Encode() ([]byte, error) {
	return s.object().marshal()
}

// JSON renders the snapshot in the JSON mapping of its payload.
func (s Snapshot) JSON() (string, error) {
	return s.object().json()
}

func (s Snapshot) object() object {
	return object{}.
		str("time", s.Time.UTC().Format(time.RFC3339Nano)).
		num("tick", float64(s.Tick)).
		obj("gear", encodeActuator(s.Gear)).
		obj("throttle", encodeActuator(s.Throttle)).
		obj("steering", object{}.
			num("position", float64(s.Steering.Position)).
			num("target", float64(s.SteeringTarget)).
			str("action", s.Steering.Action.String())).
		obj("motor", encodeMotor(s.Motor)).
		obj("link", object{}.
			num("bytes", float64(s.Link.Bytes)).
			num("frames", float64(s.Link.Frames))).
		obj("dispatch", object{}.
			num("accepted", float64(s.Dispatch.Accepted)).
			num("foreign", float64(s.Dispatch.Foreign)).
			num("rejected", float64(s.Dispatch.Rejected))).
		obj("loop", object{}.
			num("ticks", float64(s.Loop.Ticks)).
			num("errors", float64(s.Loop.Errors)))
}

// DecodeSnapshot parses an encoded Snapshot.
func DecodeSnapshot(data []byte) (s Snapshot, err error) {
	r := unmarshal(data, &err)
	if err != nil {
		return
	}
	if s.Time, err = time.Parse(time.RFC3339Nano, r.str("time")); err != nil {
		return
	}
	s.Tick = r.u64("tick")
	s.Gear = decodeActuator(r.obj("gear"))
	s.Throttle = decodeActuator(r.obj("throttle"))
	steering := r.obj("steering")
	s.Steering.Position = steering.i32("position")
	s.SteeringTarget = steering.i32("target")
	s.Steering.Action = parseAction(steering, "action")
	s.Motor = decodeMotor(r.obj("motor"))
	link := r.obj("link")
	s.Link = comm.LinkStats{Bytes: link.u64("bytes"), Frames: link.u64("frames")}
	dispatch := r.obj("dispatch")
	s.Dispatch = drive.DispatchStats{
		Accepted: dispatch.u64("accepted"),
		Foreign:  dispatch.u64("foreign"),
		Rejected: dispatch.u64("rejected"),
	}
	loop := r.obj("loop")
	s.Loop = fx.LoopStats{Ticks: loop.u64("ticks"), Errors: loop.u64("errors")}
	return
}

func encodeActuator(st actuator.Status) object {
	return object{}.
		str("state", st.State.String()).
		num("position", float64(st.Position)).
		num("target", float64(st.Target)).
		flag("has_target", st.HasTarget)
}

func decodeActuator(r reader) actuator.Status {
	st := actuator.Status{
		Position:  r.u16("position"),
		Target:    r.u16("target"),
		HasTarget: r.flag("has_target"),
	}
	name := r.str("state")
	for _, state := range []actuator.State{actuator.Stop, actuator.Fwd, actuator.Rev} {
		if state.String() == name {
			st.State = state
			return st
		}
	}
	r.fail("state", "actuator state")
	return st
}

func encodeMotor(m comm.MotorState) object {
	return object{}.
		str("kind", m.Kind.String()).
		num("power", float64(m.Power))
}

func decodeMotor(r reader) comm.MotorState {
	m := comm.MotorState{Power: r.u8("power")}
	kind, ok := comm.ParseMotorKind(r.str("kind"))
	if !ok {
		r.fail("kind", "motor kind")
	}
	m.Kind = kind
	return m
}

func parseAction(r reader, name string) stepper.Action {
	str := r.str(name)
	for _, action := range []stepper.Action{stepper.Ready, stepper.Zeroing} {
		if action.String() == str {
			return action
		}
	}
	r.fail(name, "stepper action")
	return stepper.Ready
}
