// rig-driver runs a driver board on the bench: frames come from a real
// remote board over the serial link while the mechanics are simulated.
package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"log"

	"gopkg.in/yaml.v2"

	"github.com/robotalks/rig.go/pkg/board"
	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/hal/serial"
	"github.com/robotalks/rig.go/pkg/l0/drive"
	"github.com/robotalks/rig.go/pkg/l1"
	"github.com/robotalks/rig.go/pkg/l1/env"
	"github.com/robotalks/rig.go/pkg/l1/telemetry"
	"github.com/robotalks/rig.go/pkg/sim/rig"
)

var calibrate bool

func init() {
	env.SetBoardType("driver", l1.BoardMeta{Description: "Driver board (bench)"})
	env.SetupFlags()
	board.SetupFlags()
	flag.BoolVar(&calibrate, "calibrate", calibrate, "Measure the actuator end positions and print them as YAML")
}

func main() {
	flag.Parse()

	conf := board.MustNewConfig()
	envConf := env.NewConfig()
	envConf.Info.Meta.Profile = conf.Name
	if err := envConf.Validate(); err != nil {
		log.Fatalln(err)
	}

	port := serial.MustOpen(conf.Serial.Port, conf.Serial.Baud)
	defer port.Close()

	r := rig.NewWithLink(conf, port, nil)
	runner := fx.NewRunner().HandleSignals()

	var extra []fx.Runnable
	var c *drive.Calibrator
	if calibrate {
		c = r.Board.Calibrate()
		extra = append(extra, fx.NamedRun("calibrate", fx.RunFunc(func(ctx context.Context) error {
			select {
			case <-c.Done():
				runner.Cancel()
			case <-ctx.Done():
			}
			return nil
		})))
	}
	if envConf.MQTTBrokerURL != "" {
		pub, err := telemetry.NewPublisher(envConf.MQTTBrokerURL, envConf.Info, r.Board.Snapshots, r.Board)
		if err != nil {
			log.Fatalln(err)
		}
		extra = append(extra, pub)
	}

	if err := r.Board.Run(runner.Context, extra...); err != nil {
		log.Fatalln(err)
	}
	if c == nil {
		return
	}
	result, ok := c.Result()
	if !ok {
		log.Fatalln("calibration interrupted")
	}
	out, err := yaml.Marshal(result)
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Print(string(out))
}
