// rigmon logs everything the boards publish to the broker.
package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"strings"

	"github.com/robotalks/rig.go/pkg/l1/env"
	"github.com/robotalks/rig.go/pkg/l1/mqtt"
	"github.com/robotalks/rig.go/pkg/l1/telemetry"
)

var (
	mqttURL    = env.Default().MQTTBrokerURL
	outputJSON bool
)

func init() {
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Log snapshots as JSON.")
}

func formatSnapshot(payload []byte) (string, error) {
	s, err := telemetry.DecodeSnapshot(payload)
	if err != nil {
		return "", err
	}
	if outputJSON {
		return s.JSON()
	}
	return s.String(), nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		var msg string
		var err error
		switch {
		case strings.HasSuffix(topic, "/meta"):
			msg = string(payload)
		case strings.HasSuffix(topic, "/snapshot"):
			msg, err = formatSnapshot(payload)
		case strings.HasSuffix(topic, "/cmd"):
			var cmd telemetry.Command
			if cmd, err = telemetry.DecodeCommand(payload); err == nil {
				msg = cmd.String()
			}
		default:
			return
		}
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: %s", topic, msg)
	}))
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
