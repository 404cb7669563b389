package board

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rig.go/pkg/l0/actuator"
	"github.com/robotalks/rig.go/pkg/l0/drive"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

func TestProfiles(t *testing.T) {
	require.Equal(t, []string{"left", "right"}, ProfileNames())

	left, err := Profile("left")
	require.NoError(t, err)
	require.Equal(t, byte(1), left.Drive.ID)
	require.Equal(t, drive.Presets{
		GearRev:     1540,
		GearFwd:     2630,
		GearIdle:    2085,
		ThrottleMin: 2720,
		ThrottleMax: 1500,
	}, left.Drive.Presets)
	require.Equal(t, int32(14400), left.Drive.SteeringTravel)
	require.Equal(t, uint32(8000), left.Stepper.PPR)
	require.Equal(t, 9600, left.Serial.Baud)
	require.Equal(t, time.Millisecond, left.TickInterval)
	require.NoError(t, left.Validate())

	right, err := Profile("right")
	require.NoError(t, err)
	require.Equal(t, byte(2), right.Drive.ID)
	require.Equal(t, uint16(2297), right.Drive.Presets.GearIdle)
	require.Equal(t, uint16(2790), right.Drive.Presets.ThrottleMax)

	_, err = Profile("middle")
	require.EqualError(t, err, `unknown profile "middle", expect one of [left right]`)
}

func TestParse(t *testing.T) {
	conf, err := Parse([]byte(`
base: right
name: bench
drive:
  steering_policy: reject-if-full
  presets:
    throttle_max: 2500
gear:
  deadband: 20
drive_mode: pwm
tick_interval: 2ms
serial:
  port: /dev/ttyUSB1
`))
	require.NoError(t, err)
	require.Equal(t, "bench", conf.Name)
	require.Equal(t, byte(2), conf.Drive.ID)
	require.Equal(t, mailbox.RejectIfFull, conf.Drive.SteeringPolicy)
	require.Equal(t, uint16(2500), conf.Drive.Presets.ThrottleMax)
	require.Equal(t, uint16(1883), conf.Drive.Presets.GearRev, "kept from base")
	require.Equal(t, actuator.Config{Deadband: 20, Window: actuator.DefaultWindow}, conf.Gear)
	require.Equal(t, actuator.DrivePWM, conf.DriveMode)
	require.Equal(t, 2*time.Millisecond, conf.TickInterval)
	require.Equal(t, SerialConfig{Port: "/dev/ttyUSB1", Baud: 9600}, conf.Serial)

	conf, err = Parse([]byte("name: default\n"))
	require.NoError(t, err)
	require.Equal(t, byte(1), conf.Drive.ID)

	conf, err = Parse([]byte("base: left\ndrive:\n  presets:\n    gear_rev: 1000\n    gear_fwd: 1200\n"))
	require.NoError(t, err)
	require.Equal(t, uint16(1100), conf.Drive.Presets.GearIdle, "follows overridden gears")

	conf, err = Parse([]byte("base: left\ndrive:\n  presets:\n    gear_rev: 1000\n    gear_fwd: 1200\n    gear_idle: 1150\n"))
	require.NoError(t, err)
	require.Equal(t, uint16(1150), conf.Drive.Presets.GearIdle, "explicit idle kept")

	testCases := []struct {
		name string
		yaml string
	}{
		{"unknown base", "base: middle\n"},
		{"unknown key", "steering: 1\n"},
		{"bad policy", "drive:\n  steering_policy: drop\n"},
		{"bad drive mode", "drive_mode: servo\n"},
		{"invalid", "stepper:\n  rpm: 0\n"},
		{"idle out of range", "drive:\n  presets:\n    gear_idle: 3000\n"},
		{"syntax", "drive: [\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestOptions(t *testing.T) {
	dir, err := ioutil.TempDir("", "board")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "bench.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("base: right\nserial:\n  baud: 19200\n"), 0644))

	conf, err := Options{Profile: "left", Serial: "/dev/ttyS0"}.Config()
	require.NoError(t, err)
	require.Equal(t, byte(1), conf.Drive.ID)
	require.Equal(t, SerialConfig{Port: "/dev/ttyS0", Baud: 9600}, conf.Serial)

	conf, err = Options{Profile: "left", ProfileFile: path}.Config()
	require.NoError(t, err)
	require.Equal(t, byte(2), conf.Drive.ID)
	require.Equal(t, 19200, conf.Serial.Baud)

	conf, err = Options{ProfileFile: path, Baud: 115200}.Config()
	require.NoError(t, err)
	require.Equal(t, 115200, conf.Serial.Baud)

	_, err = Options{ProfileFile: filepath.Join(dir, "missing.yaml")}.Config()
	require.Error(t, err)
	_, err = Options{Profile: "middle"}.Config()
	require.Error(t, err)
}
