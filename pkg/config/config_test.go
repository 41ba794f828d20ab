package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/ledctl.go/pkg/led"
	"github.com/robotalks/ledctl.go/pkg/led/fake"
)

const testYAML = `
id: lamp
driver: sim
color:
  white: 10
  red: 20
  green: 30
  blue: 40
serial:
  name: /dev/ttyUSB1
  baud: 115200
  read_timeout: 250ms
banner: Hello World!
listen: :8080
mqtt: mqtt://localhost:1883/led/
`

func TestLoad(t *testing.T) {
	dir, err := ioutil.TempDir("", "ledctl-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	fn := filepath.Join(dir, "ledd.yaml")
	require.NoError(t, ioutil.WriteFile(fn, []byte(testYAML), 0644))

	c := NewConfig()
	require.NoError(t, c.Load(fn))
	require.Equal(t, "lamp", c.ID)
	require.Equal(t, DriverSim, c.Driver)
	require.Equal(t, led.State{White: 10, Red: 20, Green: 30, Blue: 40}, c.Color)
	require.Equal(t, "/dev/ttyUSB1", c.Serial.Name)
	require.Equal(t, 115200, c.Serial.Baud)
	require.Equal(t, 250*time.Millisecond, c.Serial.ReadTimeout)
	require.Equal(t, "Hello World!", c.Banner)
	require.Equal(t, ":8080", c.Listen)
	require.Equal(t, "mqtt://localhost:1883/led/", c.MQTTBrokerURL)
	// untouched keys keep defaults
	require.Equal(t, defaultConfig.Pins, c.Pins)
	require.Equal(t, defaultConfig.MaxLineLength, c.MaxLineLength)
	require.NoError(t, c.Validate())

	require.Error(t, c.Load(filepath.Join(dir, "missing.yaml")))
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	c := NewConfig()
	require.Error(t, c.Parse([]byte("driver: sim\ncolour:\n  red: 1\n")))
	require.Error(t, c.Parse([]byte("pins:\n  purple: GPIO1\n")))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"sim", func(c *Config) { c.Driver = DriverSim }, true},
		{"unknown driver", func(c *Config) { c.Driver = "spi" }, false},
		{"missing pin", func(c *Config) { c.Pins.Green = "" }, false},
		{"missing pin with sim", func(c *Config) { c.Driver, c.Pins.Green = DriverSim, "" }, true},
		{"bad frequency", func(c *Config) { c.Frequency = "fast" }, false},
		{"line too short", func(c *Config) { c.MaxLineLength = 1 }, false},
		{"mqtt without id", func(c *Config) { c.ID, c.MQTTBrokerURL = "", "mqtt://localhost/" }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConfig()
			c.ID = "lamp"
			tc.modify(c)
			if tc.valid {
				require.NoError(t, c.Validate())
			} else {
				require.Error(t, c.Validate())
			}
		})
	}
}

func TestPWMFrequency(t *testing.T) {
	c := NewConfig()
	f, err := c.PWMFrequency()
	require.NoError(t, err)
	require.Equal(t, physic.KiloHertz, f)

	c.Frequency = "20kHz"
	f, err = c.PWMFrequency()
	require.NoError(t, err)
	require.Equal(t, 20*physic.KiloHertz, f)

	c.Frequency = ""
	f, err = c.PWMFrequency()
	require.NoError(t, err)
	require.Equal(t, physic.KiloHertz, f)
}

func TestNewSimDriver(t *testing.T) {
	c := NewConfig()
	c.Driver = DriverSim
	d, err := c.NewDriver()
	require.NoError(t, err)
	require.IsType(t, &fake.Driver{}, d)
	require.NoError(t, CloseDriver(d))
}

func TestEnvOverride(t *testing.T) {
	env := map[string]string{
		"LEDD_ID":       "lamp",
		"LEDD_DRIVER":   "sim",
		"LEDD_PORT":     "COM3",
		"LEDD_BAUD":     "19200",
		"LEDD_LISTEN":   ":9000",
		"LEDD_MQTT_URL": "mqtt://broker/",
	}
	c := NewConfig()
	envOverride(c, func(key string) string { return env[key] })
	require.Equal(t, "lamp", c.ID)
	require.Equal(t, DriverSim, c.Driver)
	require.Equal(t, "COM3", c.Serial.Name)
	require.Equal(t, 19200, c.Serial.Baud)
	require.Equal(t, ":9000", c.Listen)
	require.Equal(t, "mqtt://broker/", c.MQTTBrokerURL)

	env["LEDD_BAUD"] = "fast"
	envOverride(c, func(key string) string { return env[key] })
	require.Equal(t, 19200, c.Serial.Baud)
}
