package led

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/ledctl.go/pkg/framework"
)

// Listener is notified after the displayed color changes.
// Notifications are delivered one at a time in the order states are
// pushed. A listener must not call Show.
type Listener func(State)

// Display owns the color state and pushes it to the driver.
// Updating the state and pushing it is one atomic unit, so a
// Display can be shared by multiple sessions.
type Display struct {
	Driver Driver

	state      State
	lock       sync.Mutex
	notifyLock sync.Mutex
	listeners  []Listener
}

// NewDisplay creates a Display with all channels at 0.
func NewDisplay(driver Driver) *Display {
	return &Display{Driver: driver}
}

// State returns a copy of the current state.
func (d *Display) State() State {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.state
}

// Subscribe registers a listener for state changes.
func (d *Display) Subscribe(l Listener) {
	d.lock.Lock()
	d.listeners = append(d.listeners, l)
	d.lock.Unlock()
}

// Show stores the values and pushes them to the driver.
// Every channel pin is enabled or disabled on every call
// according to the duty cycle actually pushed.
func (d *Display) Show(white, red, green, blue int) error {
	return d.ShowState(State{White: white, Red: red, Green: green, Blue: blue})
}

// ShowState is the State form of Show.
func (d *Display) ShowState(s State) error {
	d.lock.Lock()
	d.state = s
	err := d.push(s)
	listeners := d.listeners
	// taken before releasing lock so notifications follow push order.
	d.notifyLock.Lock()
	defer d.notifyLock.Unlock()
	d.lock.Unlock()
	if err != nil {
		return err
	}
	for _, l := range listeners {
		l(s)
	}
	return nil
}

func (d *Display) push(s State) error {
	vals := s.Values()
	for _, ch := range Channels {
		if val := vals[ch]; !InRange(val) {
			glog.Warningf("%s value %d out of range, pushed as %d", ch, val, Duty(val))
		}
		if err := d.Driver.SetChannel(ch, Duty(vals[ch])); err != nil {
			return fmt.Errorf("set %s: %w", ch, err)
		}
	}
	var errs fx.AggregatedError
	for _, ch := range Channels {
		if err := d.Driver.SetPinEnabled(ch, Duty(vals[ch]) != 0); err != nil {
			errs.Add(fmt.Errorf("enable %s: %w", ch, err))
		}
	}
	return errs.Aggregate()
}
