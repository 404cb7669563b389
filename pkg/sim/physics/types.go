// Package physics simulates the mechanics the rig firmware controls.
// Plants read the firmware's output pins and drive its inputs.
package physics

import (
	"context"

	fx "github.com/robotalks/rig.go/pkg/framework"
)

// Context provides the simulation context.
type Context interface {
	fx.TimeSource
	Context() context.Context
}

// Plant is a simulated mechanism advanced with time.
type Plant interface {
	Advance(Context)
}
