// Package pwm implements led.Driver on hardware PWM capable GPIO pins
// using periph.io.
package pwm

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/robotalks/ledctl.go/pkg/led"
)

// DefaultFrequency is the PWM frequency used if not specified.
const DefaultFrequency = 1 * physic.KiloHertz

// Pin is the subset of gpio.PinIO used by the driver.
type Pin interface {
	Name() string
	In(pull gpio.Pull, edge gpio.Edge) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// Driver implements led.Driver. A disabled channel has its pin
// switched to input (high impedance); the duty cycle is kept and
// applied again when the pin is enabled.
type Driver struct {
	Frequency physic.Frequency

	pins    [led.NumChannels]Pin
	duty    [led.NumChannels]uint8
	enabled [led.NumChannels]bool
	// applied tells the pin outputs the current duty.
	applied [led.NumChannels]bool
	lock    sync.Mutex
}

// NewDriver creates a Driver with pins in channel order.
func NewDriver(pins [led.NumChannels]Pin, freq physic.Frequency) *Driver {
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &Driver{Frequency: freq, pins: pins}
}

// Open initializes the host drivers and looks up pins by name,
// given in channel order.
func Open(names [led.NumChannels]string, freq physic.Frequency) (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	var pins [led.NumChannels]Pin
	for _, ch := range led.Channels {
		name := names[ch]
		if name == "" {
			return nil, fmt.Errorf("pin for %s not specified", ch)
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("pin %q for %s not found", name, ch)
		}
		pins[ch] = p
	}
	d := NewDriver(pins, freq)
	glog.Infof("PWM driver opened: %v at %s", names, d.Frequency)
	return d, nil
}

// DutyOf converts 8-bit duty cycle into gpio.Duty.
func DutyOf(duty uint8) gpio.Duty {
	return gpio.Duty(int64(duty) * int64(gpio.DutyMax) / 0xff)
}

// SetChannel implements led.Driver.
func (d *Driver) SetChannel(ch led.Channel, duty uint8) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.duty[ch] == duty && d.applied[ch] {
		return nil
	}
	d.duty[ch], d.applied[ch] = duty, false
	if !d.enabled[ch] {
		return nil
	}
	if err := d.pins[ch].PWM(DutyOf(duty), d.Frequency); err != nil {
		return err
	}
	d.applied[ch] = true
	return nil
}

// SetPinEnabled implements led.Driver.
func (d *Driver) SetPinEnabled(ch led.Channel, enabled bool) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	pin := d.pins[ch]
	if enabled {
		if d.enabled[ch] && d.applied[ch] {
			return nil
		}
		if err := pin.PWM(DutyOf(d.duty[ch]), d.Frequency); err != nil {
			return fmt.Errorf("%s: %w", pin.Name(), err)
		}
		d.applied[ch] = true
	} else {
		d.applied[ch] = false
		if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return fmt.Errorf("%s: %w", pin.Name(), err)
		}
	}
	if d.enabled[ch] != enabled {
		glog.V(2).Infof("%s pin %s enabled=%v", ch, pin.Name(), enabled)
	}
	d.enabled[ch] = enabled
	return nil
}

// Close puts all pins into high impedance.
func (d *Driver) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	var firstErr error
	for _, ch := range led.Channels {
		d.enabled[ch], d.applied[ch] = false, false
		if err := d.pins[ch].In(gpio.PullNoChange, gpio.NoEdge); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
