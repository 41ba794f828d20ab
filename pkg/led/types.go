// Package led models the 4-channel W/R/G/B LED and the PWM outputs
// driving it.
package led

import "fmt"

// Channel identifies one of the independently controlled outputs.
type Channel int

// Channels in the order values are carried on the wire.
const (
	White Channel = iota
	Red
	Green
	Blue

	// NumChannels is the total number of channels.
	NumChannels = 4
)

// Channels lists all channels in wire order.
var Channels = [NumChannels]Channel{White, Red, Green, Blue}

var channelNames = [NumChannels]string{"white", "red", "green", "blue"}

// String implements fmt.Stringer.
func (c Channel) String() string {
	if c >= 0 && int(c) < NumChannels {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// ParseChannel converts a channel name into Channel.
func ParseChannel(name string) (Channel, error) {
	for n, s := range channelNames {
		if s == name {
			return Channel(n), nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", name)
}

// State holds the current value of every channel.
// Values are expected in [0, 255] but are not clamped.
type State struct {
	White int `json:"white" yaml:"white"`
	Red   int `json:"red" yaml:"red"`
	Green int `json:"green" yaml:"green"`
	Blue  int `json:"blue" yaml:"blue"`
}

// Values returns channel values in wire order.
func (s State) Values() [NumChannels]int {
	return [NumChannels]int{s.White, s.Red, s.Green, s.Blue}
}

// Get returns the value of a single channel.
func (s State) Get(ch Channel) int {
	return s.Values()[ch]
}

// String implements fmt.Stringer using the wire format W,R,G,B.
func (s State) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", s.White, s.Red, s.Green, s.Blue)
}

// Duty converts a channel value into the 8-bit duty cycle register value.
// Out-of-range values keep only the low 8 bits.
func Duty(val int) uint8 {
	return uint8(val)
}

// InRange tells if the value fits the 8-bit duty cycle without aliasing.
func InRange(val int) bool {
	return val >= 0 && val <= 0xff
}

// Driver abstracts the PWM outputs.
type Driver interface {
	// SetChannel sets the duty cycle of a channel, 0 is fully off.
	SetChannel(ch Channel, duty uint8) error
	// SetPinEnabled switches the channel pin between driven output
	// and high impedance input.
	SetPinEnabled(ch Channel, enabled bool) error
}
