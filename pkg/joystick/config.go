package joystick

import (
	"flag"

	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/l0/remote"
)

// Axis maps a joystick axis onto a potentiometer channel. The centered
// stick reads Center, full deflection reads 0 or 4095.
type Axis struct {
	Channel hal.Channel
	Index   int
	Center  uint16
	Invert  bool
}

// Config defines the joystick used as the operator potentiometers.
type Config struct {
	DeviceIndex int
	Verbose     bool
	Axes        []Axis
}

// DefaultAxes centers the sticks where the remote board idles both
// motors and steers straight.
func DefaultAxes(ch remote.Channels) []Axis {
	return []Axis{
		{Channel: ch.Left, Index: 1, Center: 300, Invert: true},
		{Channel: ch.Mid, Index: 0, Center: 2048},
		{Channel: ch.Right, Index: 3, Center: 2800},
	}
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Axes:        DefaultAxes(remote.DefaultConfig().Channels),
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "device", defaultConfig.DeviceIndex, "Joystick device index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Print joystick events.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Axes = append([]Axis(nil), defaultConfig.Axes...)
	return &conf
}

// NewPots creates the potentiometers using the config.
func (c *Config) NewPots() *Pots {
	p := NewPots(c.Axes...)
	p.DeviceIndex = c.DeviceIndex
	p.Verbose = c.Verbose
	return p
}
