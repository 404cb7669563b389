// Package env provides the common settings of programs talking to the
// telemetry broker.
package env

import (
	"flag"
	"fmt"

	envparse "github.com/caarlos0/env"
	"github.com/denisbrodbeck/machineid"

	"github.com/robotalks/rig.go/pkg/l1"
)

// DefaultMQTTBrokerURL is used when RIG_MQTT_URL is not set.
const DefaultMQTTBrokerURL = "mqtt://localhost:1883/rig/"

// Config identifies the program on the broker.
type Config struct {
	Info l1.BoardInfo

	// MQTTBrokerURL specifies the MQTT broker to use, empty disables it.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `env:"RIG_MQTT_URL" envDefault:"mqtt://localhost:1883/rig/"`
}

var defaultConfig = Config{
	MQTTBrokerURL: DefaultMQTTBrokerURL,
}

func init() {
	if err := envparse.Parse(&defaultConfig); err != nil {
		panic(err)
	}
	defaultConfig.Info.Ref.ID = MachineID()
}

// MachineID retrieves the unique ID identifying the machine.
// It falls back to "local" where the machine has no ID.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil || id == "" {
		return "local"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Board instance ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable telemetry")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// SetBoardType should be called in init with basic info about the board.
func SetBoardType(typ string, meta l1.BoardMeta) {
	defaultConfig.Info.Ref.Type = typ
	defaultConfig.Info.Meta = meta
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the board can be registered.
func (c *Config) Validate() error {
	if !c.Info.Ref.IsValid() {
		return fmt.Errorf("invalid board reference %q", c.Info.Ref.Name())
	}
	return nil
}
