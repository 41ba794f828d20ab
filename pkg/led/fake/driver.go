// Package fake provides an in-memory led.Driver which records every call,
// useful for tests and running without hardware.
package fake

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/ledctl.go/pkg/led"
)

// Op is the kind of a recorded call.
type Op int

// Recorded operations.
const (
	OpSetChannel Op = iota
	OpSetPinEnabled
)

// Call is a recorded driver call.
type Call struct {
	Op      Op
	Channel led.Channel
	Duty    uint8
	Enabled bool
}

// String implements fmt.Stringer.
func (c Call) String() string {
	if c.Op == OpSetChannel {
		return fmt.Sprintf("set %s=%d", c.Channel, c.Duty)
	}
	return fmt.Sprintf("enable %s=%v", c.Channel, c.Enabled)
}

// SetChannel creates the Call for SetChannel.
func SetChannel(ch led.Channel, duty uint8) Call {
	return Call{Op: OpSetChannel, Channel: ch, Duty: duty}
}

// SetPinEnabled creates the Call for SetPinEnabled.
func SetPinEnabled(ch led.Channel, enabled bool) Call {
	return Call{Op: OpSetPinEnabled, Channel: ch, Enabled: enabled}
}

// Driver implements led.Driver in memory.
type Driver struct {
	// Err, if set, is returned by every call.
	Err error

	duty    [led.NumChannels]uint8
	enabled [led.NumChannels]bool
	calls   []Call
	lock    sync.Mutex
}

// SetChannel implements led.Driver.
func (d *Driver) SetChannel(ch led.Channel, duty uint8) error {
	return d.record(SetChannel(ch, duty), func() { d.duty[ch] = duty })
}

// SetPinEnabled implements led.Driver.
func (d *Driver) SetPinEnabled(ch led.Channel, enabled bool) error {
	return d.record(SetPinEnabled(ch, enabled), func() { d.enabled[ch] = enabled })
}

func (d *Driver) record(c Call, apply func()) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.calls = append(d.calls, c)
	if d.Err != nil {
		return d.Err
	}
	apply()
	glog.V(3).Info(c.String())
	return nil
}

// Calls returns and clears recorded calls.
func (d *Driver) Calls() []Call {
	d.lock.Lock()
	defer d.lock.Unlock()
	calls := d.calls
	d.calls = nil
	return calls
}

// Duty returns the current duty cycle of a channel.
func (d *Driver) Duty(ch led.Channel) uint8 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.duty[ch]
}

// Enabled tells whether the channel pin is driven.
func (d *Driver) Enabled(ch led.Channel) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.enabled[ch]
}
