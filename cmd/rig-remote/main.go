// rig-remote transmits frames to the driver boards. The potentiometer
// readings come from a joystick with -joystick, otherwise from the command
// line, updated from stdin one "LEFT MID RIGHT" line at a time.
package main

//go-build: CGO_ENABLED=0

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/hal/serial"
	"github.com/robotalks/rig.go/pkg/joystick"
	"github.com/robotalks/rig.go/pkg/l0/remote"
	"github.com/robotalks/rig.go/pkg/sim"
)

var (
	serialPort string
	baud       = serial.DefaultBaudRate
	conf       = remote.DefaultConfig()
	pots       = [3]uint{300, 2048, 2800}
	rate       = uint(remote.DefaultRate)
	useJoy     bool
)

func init() {
	flag.StringVar(&serialPort, "serial", serialPort, "Serial device of the link, empty to find one")
	flag.IntVar(&baud, "baud", baud, "Serial baud rate")
	flag.UintVar(&pots[0], "left", pots[0], "Left potentiometer reading")
	flag.UintVar(&pots[1], "mid", pots[1], "Steering potentiometer reading")
	flag.UintVar(&pots[2], "right", pots[2], "Right potentiometer reading")
	flag.UintVar(&rate, "rate", rate, "Frame pairs per second")
	flag.BoolVar(&useJoy, "joystick", useJoy, "Read the potentiometers from a joystick")
	joystick.SetupFlags()
}

func setPots(adc *sim.ADC, values [3]uint) {
	adc.SetValue(conf.Channels.Left, uint16(values[0])).
		SetValue(conf.Channels.Mid, uint16(values[1])).
		SetValue(conf.Channels.Right, uint16(values[2]))
}

func readPots(adc *sim.ADC) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var values [3]uint
		if _, err := fmt.Sscan(scanner.Text(), &values[0], &values[1], &values[2]); err != nil {
			glog.Warningf("expect LEFT MID RIGHT: %v", err)
			continue
		}
		setPots(adc, values)
		glog.Infof("potentiometers set to %v", values)
	}
}

func main() {
	flag.Parse()
	if rate == 0 {
		log.Fatalln("rate must be positive")
	}
	conf.Rate = uint32(rate)

	port := serial.MustOpen(serialPort, baud)
	defer port.Close()

	runner := fx.NewRunner().HandleSignals()
	var adc hal.ADC
	if useJoy {
		joyConf := joystick.NewConfig()
		joyConf.Axes = joystick.DefaultAxes(conf.Channels)
		p := joyConf.NewPots()
		runner.Go(p)
		adc = p
	} else {
		p := sim.NewADC()
		setPots(p, pots)
		go readPots(p)
		adc = p
	}

	tx := remote.NewTransmitter(conf, adc, port)
	loop := fx.NewLoop().Add(tx)
	loop.Interval = time.Second / time.Duration(conf.Rate)

	if err := runner.Go(fx.NamedRun("remote", loop)).Wait(); err != nil {
		log.Fatalln(err)
	}
	glog.Infof("%d frames sent", tx.Sent())
}
