// Package port provides the byte stream over a serial line.
package port

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"
	enum "go.bug.st/serial"
)

// DefaultBaud is the baud rate of the command line.
const DefaultBaud = 9600

// ErrNoPort indicates no serial port is available for auto detection.
var ErrNoPort = errors.New("no serial port found")

// Config defines a serial port.
type Config struct {
	// Name is the device, e.g. /dev/ttyUSB0 or COM3.
	// Empty means the first port found.
	Name string `yaml:"name"`
	Baud int    `yaml:"baud"`
	// ReadTimeout makes reads return periodically when no data arrives.
	// 0 blocks forever.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// List enumerates serial ports on the system.
func List() ([]string, error) {
	return enum.GetPortsList()
}

// Open opens the serial port as a byte stream with 8N1 framing.
func (c Config) Open() (io.ReadWriteCloser, error) {
	name := c.Name
	if name == "" {
		ports, err := List()
		if err != nil {
			return nil, fmt.Errorf("list serial ports: %w", err)
		}
		if len(ports) == 0 {
			return nil, ErrNoPort
		}
		name = ports[0]
		glog.Infof("serial port detected: %s", name)
	}
	baud := c.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	glog.Infof("opening serial port %s at %d baud", name, baud)
	p, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: c.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if c.ReadTimeout > 0 {
		return timeoutPort{Port: p}, nil
	}
	return p, nil
}

// timeoutPort reports an expired read timeout as an empty read.
// The tty file reports it as io.EOF.
type timeoutPort struct {
	*serial.Port
}

func (p timeoutPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && err == io.EOF {
		return 0, nil
	}
	return n, err
}
