package board

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"sort"
	"time"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v2"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/hal/serial"
	"github.com/robotalks/rig.go/pkg/l0/actuator"
	"github.com/robotalks/rig.go/pkg/l0/drive"
	"github.com/robotalks/rig.go/pkg/l0/stepper"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// Channels maps the feedback potentiometers to ADC channels.
type Channels struct {
	Gear     hal.Channel `yaml:"gear"`
	Throttle hal.Channel `yaml:"throttle"`
}

// SerialConfig selects the link to the remote board.
type SerialConfig struct {
	// Port is the device name, empty to find one.
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// Config is a driver board profile.
type Config struct {
	Name         string             `yaml:"name"`
	Drive        drive.Config       `yaml:"drive"`
	Gear         actuator.Config    `yaml:"gear"`
	Throttle     actuator.Config    `yaml:"throttle"`
	DriveMode    actuator.DriveMode `yaml:"drive_mode"`
	Stepper      stepper.Config     `yaml:"stepper"`
	Channels     Channels           `yaml:"channels"`
	TickInterval time.Duration      `yaml:"tick_interval"`
	Serial       SerialConfig       `yaml:"serial"`
}

func baseProfile(name string, id byte, presets drive.Presets) Config {
	return Config{
		Name: name,
		Drive: drive.Config{
			ID:             id,
			Presets:        presets.WithIdleGear(),
			SteeringTravel: drive.DefaultSteeringTravel,
			SteeringPolicy: mailbox.Overwrite,
		},
		Gear:         actuator.DefaultConfig(),
		Throttle:     actuator.DefaultConfig(),
		DriveMode:    actuator.DriveRelay,
		Stepper:      stepper.DefaultConfig(),
		Channels:     Channels{Gear: 0, Throttle: 4},
		TickInterval: fx.DefaultInterval,
		Serial:       SerialConfig{Baud: serial.DefaultBaudRate},
	}
}

// Profiles are the calibrated boards of the rig.
var Profiles = map[string]Config{
	"left": baseProfile("left", 1, drive.Presets{
		GearRev:     1540,
		GearFwd:     2630,
		ThrottleMin: 2720,
		ThrottleMax: 1500,
	}),
	"right": baseProfile("right", 2, drive.Presets{
		GearRev:     1883,
		GearFwd:     2712,
		ThrottleMin: 1900,
		ThrottleMax: 2790,
	}),
}

// ProfileNames lists the built-in profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(Profiles))
	for name := range Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile gets a built-in profile.
func Profile(name string) (Config, error) {
	conf, ok := Profiles[name]
	if !ok {
		return conf, fmt.Errorf("unknown profile %q, expect one of %v", name, ProfileNames())
	}
	return conf, nil
}

// Parse overlays YAML onto the profile named by its "base" key, "left"
// if absent.
func Parse(data []byte) (Config, error) {
	var base struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return Config{}, err
	}
	if base.Base == "" {
		base.Base = "left"
	}
	conf, err := Profile(base.Base)
	if err != nil {
		return conf, err
	}
	var file struct {
		Base   string `yaml:"base"`
		Config `yaml:",inline"`
	}
	file.Config = conf
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return conf, err
	}
	// the idle gear follows overridden gear presets unless set explicitly.
	var explicit struct {
		Drive struct {
			Presets struct {
				GearIdle *uint16 `yaml:"gear_idle"`
			} `yaml:"presets"`
		} `yaml:"drive"`
	}
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return conf, err
	}
	if explicit.Drive.Presets.GearIdle == nil {
		file.Drive.Presets = file.Drive.Presets.WithIdleGear()
	}
	return file.Config, file.Validate()
}

// LoadFile reads a profile file.
func LoadFile(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	conf, err := Parse(data)
	if err != nil {
		return conf, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// Validate checks the settings can drive the rig.
func (c *Config) Validate() error {
	switch {
	case c.Stepper.PPR == 0 || c.Stepper.RPM == 0:
		return stepper.ErrZeroFrequency
	case c.Drive.SteeringTravel <= 0:
		return fmt.Errorf("steering_travel must be positive")
	case c.Drive.Presets.GearRev == c.Drive.Presets.GearFwd:
		return fmt.Errorf("gear presets must differ")
	case !gearIdleInRange(c.Drive.Presets):
		return fmt.Errorf("gear_idle must lie between gear_rev and gear_fwd")
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive")
	}
	return nil
}

func gearIdleInRange(p drive.Presets) bool {
	lo, hi := p.GearRev, p.GearFwd
	if lo > hi {
		lo, hi = hi, lo
	}
	return p.GearIdle >= lo && p.GearIdle <= hi
}

// Options select the Config of a board from the environment and flags.
type Options struct {
	Profile     string `env:"RIG_PROFILE" envDefault:"left"`
	ProfileFile string `env:"RIG_PROFILE_FILE"`
	Serial      string `env:"RIG_SERIAL"`
	Baud        int    `env:"RIG_BAUD"`
}

var defaultOptions Options

func init() {
	if err := env.Parse(&defaultOptions); err != nil {
		panic(err)
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultOptions.Profile, "profile", defaultOptions.Profile, "Built-in board profile")
	flag.StringVar(&defaultOptions.ProfileFile, "profile-file", defaultOptions.ProfileFile, "YAML board profile, overrides -profile")
	flag.StringVar(&defaultOptions.Serial, "serial", defaultOptions.Serial, "Serial device of the link, empty to find one")
	flag.IntVar(&defaultOptions.Baud, "baud", defaultOptions.Baud, "Serial baud rate, 0 keeps the profile's")
}

// DefaultOptions gets the default options.
func DefaultOptions() *Options {
	return &defaultOptions
}

// NewConfig resolves the Config from the default options.
func NewConfig() (*Config, error) {
	return defaultOptions.Config()
}

// MustNewConfig resolves the Config and fails on error.
func MustNewConfig() *Config {
	conf, err := NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// Config resolves the Config.
func (o Options) Config() (*Config, error) {
	var conf Config
	var err error
	if o.ProfileFile != "" {
		conf, err = LoadFile(o.ProfileFile)
	} else {
		conf, err = Profile(o.Profile)
	}
	if err != nil {
		return nil, err
	}
	if o.Serial != "" {
		conf.Serial.Port = o.Serial
	}
	if o.Baud > 0 {
		conf.Serial.Baud = o.Baud
	}
	return &conf, nil
}
