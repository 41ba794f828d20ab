package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/ledctl.go/pkg/at"
	"github.com/robotalks/ledctl.go/pkg/config"
	fx "github.com/robotalks/ledctl.go/pkg/framework"
	"github.com/robotalks/ledctl.go/pkg/led"
	"github.com/robotalks/ledctl.go/pkg/remote/mqtt"
	"github.com/robotalks/ledctl.go/pkg/remote/websocket"
)

var configFile string

func init() {
	config.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML config file, applied over flags.")
}

func main() {
	flag.Parse()

	conf := config.NewConfig()
	if configFile != "" {
		if err := conf.Load(configFile); err != nil {
			log.Fatalln(err)
		}
	}
	driver := conf.MustNewDriver()
	if err := run(fx.NewRunner().HandleSignals().Context, conf, driver); err != nil {
		log.Fatalln(err)
	}
}

// run serves until ctx is done or any surface fails. The driver is
// always closed on return.
func run(ctx context.Context, conf *config.Config, driver led.Driver) (err error) {
	defer func() {
		if cerr := config.CloseDriver(driver); cerr != nil {
			glog.Errorf("close driver: %v", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()

	display := led.NewDisplay(driver)
	if err := display.ShowState(conf.Color); err != nil {
		return err
	}

	loop := fx.NewLoop()
	loop.Interval = conf.Interval
	loop.Add(led.NewMonitor(display))

	if !conf.DisableSerial {
		stream, err := conf.Serial.Open()
		if err != nil {
			return err
		}
		session := at.NewSession("serial", stream, display)
		session.Banner = conf.Banner
		session.MaxLineLength = conf.MaxLineLength
		loop.AddRunnable(session)
	}
	if conf.Listen != "" {
		server := websocket.NewServer(conf.Listen, display)
		server.Banner = conf.Banner
		server.MaxLineLength = conf.MaxLineLength
		loop.AddRunnable(server)
	}
	if conf.MQTTBrokerURL != "" {
		bridge, err := mqtt.NewBridge(conf.MQTTBrokerURL, conf.ID, display)
		if err != nil {
			return err
		}
		bridge.MaxLineLength = conf.MaxLineLength
		loop.AddRunnable(bridge)
	}

	glog.Infof("ledd started, driver %s, color %s", conf.Driver, display.State())
	if err := loop.Run(ctx); err != context.Canceled {
		return err
	}
	return nil
}
