package actuator

// Defaults tuned for the rig's potentiometer feedback, in raw ADC units.
const (
	DefaultDeadband uint16 = 10
	DefaultWindow   uint16 = 50
)

// Config defines the tolerances of a Controller.
type Config struct {
	// Deadband is the distance from target within which the actuator halts.
	Deadband uint16 `yaml:"deadband"`
	// Window is the distance used by Within.
	Window uint16 `yaml:"window"`
}

// DefaultConfig returns the default tolerances.
func DefaultConfig() Config {
	return Config{Deadband: DefaultDeadband, Window: DefaultWindow}
}
