// Package config provides the options of the LED daemon, from command
// line flags, environment variables and an optional YAML file.
package config

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v2"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/ledctl.go/pkg/at"
	"github.com/robotalks/ledctl.go/pkg/led"
	"github.com/robotalks/ledctl.go/pkg/led/fake"
	"github.com/robotalks/ledctl.go/pkg/led/pwm"
	"github.com/robotalks/ledctl.go/pkg/port"
)

// Driver names.
const (
	DriverPeriph = "periph"
	DriverSim    = "sim"
)

// Pins names the GPIO pin of every channel.
type Pins struct {
	White string `yaml:"white"`
	Red   string `yaml:"red"`
	Green string `yaml:"green"`
	Blue  string `yaml:"blue"`
}

// Names returns pin names in channel order.
func (p Pins) Names() [led.NumChannels]string {
	return [led.NumChannels]string{p.White, p.Red, p.Green, p.Blue}
}

// Config defines the daemon.
type Config struct {
	// ID identifies the device on MQTT, defaults to the machine ID.
	ID     string `yaml:"id"`
	Driver string `yaml:"driver"`
	Pins   Pins   `yaml:"pins"`
	// Frequency is the PWM frequency, e.g. 1kHz.
	Frequency string `yaml:"frequency"`
	// Color is applied on startup.
	Color led.State `yaml:"color"`

	Serial        port.Config `yaml:"serial"`
	DisableSerial bool        `yaml:"disable_serial"`
	Banner        string      `yaml:"banner"`
	MaxLineLength int         `yaml:"max_line_length"`

	// Listen is the websocket listening address, empty to disable.
	Listen string `yaml:"listen"`
	// MQTTBrokerURL, e.g. mqtt://host:port/topic-prefix, empty to disable.
	MQTTBrokerURL string `yaml:"mqtt"`

	// Interval is the period of the control loop.
	Interval time.Duration `yaml:"interval"`
}

var defaultConfig = Config{
	Driver: DriverPeriph,
	Pins: Pins{
		White: "GPIO12",
		Red:   "GPIO13",
		Green: "GPIO18",
		Blue:  "GPIO19",
	},
	Frequency:     pwm.DefaultFrequency.String(),
	Serial:        port.Config{Baud: port.DefaultBaud, ReadTimeout: 100 * time.Millisecond},
	MaxLineLength: at.DefaultMaxLineLength,
	Interval:      100 * time.Millisecond,
}

func init() {
	if id, err := machineid.ID(); err == nil {
		defaultConfig.ID = id
	}
	envOverride(&defaultConfig, os.Getenv)
}

func envOverride(c *Config, getenv func(string) string) {
	if val := getenv("LEDD_ID"); val != "" {
		c.ID = val
	}
	if val := getenv("LEDD_DRIVER"); val != "" {
		c.Driver = val
	}
	if val := getenv("LEDD_PORT"); val != "" {
		c.Serial.Name = val
	}
	if val := getenv("LEDD_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			c.Serial.Baud = baud
		}
	}
	if val := getenv("LEDD_LISTEN"); val != "" {
		c.Listen = val
	}
	if val := getenv("LEDD_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.ID, "id", c.ID, "Device ID.")
	flag.StringVar(&c.Driver, "driver", c.Driver, "LED driver: periph or sim.")
	flag.StringVar(&c.Pins.White, "pin-white", c.Pins.White, "GPIO pin of white channel.")
	flag.StringVar(&c.Pins.Red, "pin-red", c.Pins.Red, "GPIO pin of red channel.")
	flag.StringVar(&c.Pins.Green, "pin-green", c.Pins.Green, "GPIO pin of green channel.")
	flag.StringVar(&c.Pins.Blue, "pin-blue", c.Pins.Blue, "GPIO pin of blue channel.")
	flag.StringVar(&c.Frequency, "freq", c.Frequency, "PWM frequency.")
	flag.StringVar(&c.Serial.Name, "port", c.Serial.Name, "Serial port, empty for the first found.")
	flag.IntVar(&c.Serial.Baud, "baud", c.Serial.Baud, "Serial baud rate.")
	flag.BoolVar(&c.DisableSerial, "no-serial", c.DisableSerial, "Do not serve the serial port.")
	flag.StringVar(&c.Banner, "banner", c.Banner, "Line sent when a session starts.")
	flag.IntVar(&c.MaxLineLength, "max-line", c.MaxLineLength, "Maximum command line length including terminator.")
	flag.StringVar(&c.Listen, "listen", c.Listen, "Websocket listening address.")
	flag.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL.")
	flag.DurationVar(&c.Interval, "interval", c.Interval, "Control loop interval.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads a YAML file on top of the config. Unknown keys are rejected.
func (c *Config) Load(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open config file: %w", err)
	}
	return c.Parse(data)
}

// Parse is Load from bytes.
func (c *Config) Parse(data []byte) error {
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("could not parse config file: %w", err)
	}
	return nil
}

// PWMFrequency parses Frequency.
func (c *Config) PWMFrequency() (physic.Frequency, error) {
	var f physic.Frequency
	if c.Frequency == "" {
		return pwm.DefaultFrequency, nil
	}
	if err := f.Set(c.Frequency); err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", c.Frequency, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("invalid frequency %q", c.Frequency)
	}
	return f, nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPeriph:
		for n, name := range c.Pins.Names() {
			if name == "" {
				return fmt.Errorf("pin for %s not specified", led.Channel(n))
			}
		}
		if _, err := c.PWMFrequency(); err != nil {
			return err
		}
	case DriverSim:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.MaxLineLength < 2 {
		return fmt.Errorf("max line length %d too small", c.MaxLineLength)
	}
	if c.MQTTBrokerURL != "" && c.ID == "" {
		return fmt.Errorf("device ID must be specified for MQTT")
	}
	return nil
}

// NewDriver creates the LED driver. The driver should be closed when it
// implements io.Closer.
func (c *Config) NewDriver() (led.Driver, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Driver == DriverSim {
		return &fake.Driver{}, nil
	}
	freq, err := c.PWMFrequency()
	if err != nil {
		return nil, err
	}
	return pwm.Open(c.Pins.Names(), freq)
}

// MustNewDriver creates the driver and fails on error.
func (c *Config) MustNewDriver() led.Driver {
	d, err := c.NewDriver()
	if err != nil {
		log.Fatalln(err)
	}
	return d
}

// CloseDriver closes the driver if it's an io.Closer.
func CloseDriver(d led.Driver) error {
	if closer, ok := d.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
