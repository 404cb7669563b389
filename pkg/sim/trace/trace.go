// Package trace reports changes of simulated objects as JSON lines, one
// line per changed object and tick.
package trace

import (
	"encoding/json"
	"io"
	"sort"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/sim"
	"github.com/robotalks/rig.go/pkg/sim/physics"
)

// Record is the data model of a reported object.
type Record map[string]interface{}

// ObjectMapper maps an object into a Record, nil skips it.
type ObjectMapper interface {
	MapObject(sim.Object) Record
}

// MapObjectFunc is the func form of ObjectMapper.
type MapObjectFunc func(sim.Object) Record

// MapObject implements ObjectMapper.
func (f MapObjectFunc) MapObject(obj sim.Object) Record {
	return f(obj)
}

// MapPlant maps the plants in sim/physics.
func MapPlant(obj sim.Object) Record {
	switch plant := obj.(type) {
	case *physics.LinearActuator:
		return Record{
			"kind":      "actuator",
			"position":  plant.Position(),
			"direction": plant.Direction(),
		}
	case *physics.StepperAxis:
		return Record{
			"kind":     "stepper",
			"position": plant.Position(),
			"pulses":   plant.Pulses(),
		}
	}
	return nil
}

// Adapter collects changes during a tick and writes them at the end.
type Adapter struct {
	Writer io.Writer
	Mapper ObjectMapper
	// Prefix names the source in every record, e.g. the board.
	Prefix string

	updated map[string]sim.Object
	written int
}

// NewAdapter creates an adapter writing to w.
func NewAdapter(w io.Writer) *Adapter {
	return &Adapter{Writer: w, Mapper: MapObjectFunc(MapPlant)}
}

// Subscribe is a helper to subscribe object changes.
func (a *Adapter) Subscribe(subs ...sim.ObjectsChangeSubscriber) *Adapter {
	for _, sub := range subs {
		sub.SubscribeObjectsChange(a)
	}
	return a
}

// ObjectsChanged implements ObjectsChangeListener.
func (a *Adapter) ObjectsChanged(cc fx.ControlContext, objs ...sim.Object) {
	if a.updated == nil {
		a.updated = make(map[string]sim.Object)
	}
	for _, obj := range objs {
		a.updated[obj.Name()] = obj
	}
}

// AddToLoop implements LoopAdder.
func (a *Adapter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvIdle, fx.ControlFunc(a.ReportChanges))
}

// Written returns the number of records written.
func (a *Adapter) Written() int {
	return a.written
}

// ReportChanges is a controller writing the changes of the tick.
func (a *Adapter) ReportChanges(cc fx.ControlContext) error {
	if len(a.updated) == 0 {
		return nil
	}
	names := make([]string, 0, len(a.updated))
	for name := range a.updated {
		names = append(names, name)
	}
	sort.Strings(names)
	enc := json.NewEncoder(a.Writer)
	for _, name := range names {
		rec := a.Mapper.MapObject(a.updated[name])
		if rec == nil {
			continue
		}
		rec["name"] = a.Prefix + name
		rec["tick"] = cc.Tick()
		if err := enc.Encode(rec); err != nil {
			return err
		}
		a.written++
	}
	a.updated = nil
	return nil
}
