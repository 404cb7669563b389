// rig-sim runs the whole rig in one process: the remote board and both
// driver boards share a simulated serial line.
package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rig.go/pkg/board"
	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/l0/remote"
	"github.com/robotalks/rig.go/pkg/l1"
	"github.com/robotalks/rig.go/pkg/l1/env"
	"github.com/robotalks/rig.go/pkg/l1/telemetry"
	"github.com/robotalks/rig.go/pkg/sim"
	"github.com/robotalks/rig.go/pkg/sim/rig"
	"github.com/robotalks/rig.go/pkg/sim/trace"
)

var (
	pots       = [3]uint{300, 2048, 2800}
	noise      float64
	traceOn    bool
	traceAddr  string
	remoteConf = remote.DefaultConfig()
)

func init() {
	env.SetBoardType("sim", l1.BoardMeta{Description: "Simulation: driver board"})
	env.SetupFlags()
	flag.UintVar(&pots[0], "left", pots[0], "Left potentiometer reading")
	flag.UintVar(&pots[1], "mid", pots[1], "Steering potentiometer reading")
	flag.UintVar(&pots[2], "right", pots[2], "Right potentiometer reading")
	flag.Float64Var(&noise, "noise", noise, "Probability of corrupting a byte on the line")
	flag.BoolVar(&traceOn, "trace", traceOn, "Write plant changes to stdout as JSON lines")
	flag.StringVar(&traceAddr, "trace-addr", traceAddr, "Serve plant changes to websocket viewers at ADDR/trace")
}

func traceWriter() io.Writer {
	var writers []io.Writer
	if traceOn {
		writers = append(writers, os.Stdout)
	}
	if traceAddr != "" {
		hub := trace.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/trace", hub.Handler())
		go func() {
			glog.Infof("serving trace at %s/trace", traceAddr)
			log.Fatalln(http.ListenAndServe(traceAddr, mux))
		}()
		writers = append(writers, hub)
	}
	switch len(writers) {
	case 0:
		return nil
	case 1:
		return writers[0]
	}
	return io.MultiWriter(writers...)
}

func newRig(line *sim.Line, name string, traceOut io.Writer) (*rig.Rig, []fx.Runnable) {
	conf, err := board.Profile(name)
	if err != nil {
		log.Fatalln(err)
	}
	r := rig.NewWithLink(&conf, line.Attach(), nil)
	if traceOut != nil {
		adapter := trace.NewAdapter(traceOut)
		adapter.Prefix = name + "."
		r.Board.Loop.Add(adapter.Subscribe(r))
	}

	envConf := env.NewConfig()
	if envConf.MQTTBrokerURL == "" {
		return r, nil
	}
	envConf.Info.Ref.ID += "-" + name
	envConf.Info.Meta.Profile = name
	if err := envConf.Validate(); err != nil {
		log.Fatalln(err)
	}
	pub, err := telemetry.NewPublisher(envConf.MQTTBrokerURL, envConf.Info, r.Board.Snapshots, r.Board)
	if err != nil {
		log.Fatalln(err)
	}
	return r, []fx.Runnable{pub}
}

func main() {
	flag.Parse()

	line := sim.NewLine()
	if noise > 0 {
		line.SetNoise(noise, time.Now().UnixNano())
	}

	adc := sim.NewADC().
		SetValue(remoteConf.Channels.Left, uint16(pots[0])).
		SetValue(remoteConf.Channels.Mid, uint16(pots[1])).
		SetValue(remoteConf.Channels.Right, uint16(pots[2]))
	tx := remote.NewTransmitter(remoteConf, adc, line.Attach())
	remoteLoop := fx.NewLoop().Add(tx)
	remoteLoop.Interval = time.Second / time.Duration(remoteConf.Rate)

	traceOut := traceWriter()
	runner := fx.NewRunner().HandleSignals()
	for _, name := range board.ProfileNames() {
		r, extra := newRig(line, name, traceOut)
		runner.Go(fx.NamedRun(name, fx.RunFunc(func(ctx context.Context) error {
			return r.Board.Run(ctx, extra...)
		})))
	}
	if err := runner.Go(fx.NamedRun("remote", remoteLoop)).Wait(); err != nil {
		log.Fatalln(err)
	}
}
