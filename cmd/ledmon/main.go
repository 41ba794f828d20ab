package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/ledctl.go/pkg/msgs"
	"github.com/robotalks/ledctl.go/pkg/remote/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/"
)

func init() {
	if val := os.Getenv("LEDD_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.TopicState) {
			s, err := msgs.DecodeState(payload)
			if err != nil {
				log.Printf("%s: bad state: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, s)
			return
		}
		log.Printf("%s: %q", topic, string(payload))
	}))
	if err := mqtt.WaitToken(q.Connect(), mqtt.DefaultPublishTimeout); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
