package led

import (
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/ledctl.go/pkg/framework"
)

// Monitor reports color changes of a Display from the control loop.
type Monitor struct {
	// Report is called with the latest state, defaults to logging.
	Report func(State)

	loopCtl fx.LoopControl
	state   State
	changed bool
	lock    sync.Mutex
}

// NewMonitor creates a Monitor subscribed to the display.
func NewMonitor(d *Display) *Monitor {
	m := &Monitor{Report: logState}
	d.Subscribe(m.update)
	return m
}

func logState(s State) {
	glog.Infof("color %s", s)
}

func (m *Monitor) update(s State) {
	m.lock.Lock()
	m.state, m.changed = s, true
	loopCtl := m.loopCtl
	m.lock.Unlock()
	if loopCtl != nil {
		loopCtl.TriggerNext()
	}
}

// Control implements Controller. Multiple changes between iterations
// are reported once with the latest state.
func (m *Monitor) Control(fx.ControlContext) error {
	m.lock.Lock()
	s, changed := m.state, m.changed
	m.changed = false
	m.lock.Unlock()
	if changed && m.Report != nil {
		m.Report(s)
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (m *Monitor) AddToLoop(loop *fx.Loop) {
	m.lock.Lock()
	m.loopCtl = loop
	m.lock.Unlock()
	loop.AddController(fx.PrLvPostProc, m)
}
