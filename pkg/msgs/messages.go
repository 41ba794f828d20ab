// Package msgs defines the messages published by remote bridges.
package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/ledctl.go/pkg/led"
)

// ColorState is the event published when the displayed color changes.
type ColorState struct {
	White int32 `protobuf:"varint,1,opt,name=white,proto3" json:"white,omitempty"`
	Red   int32 `protobuf:"varint,2,opt,name=red,proto3" json:"red,omitempty"`
	Green int32 `protobuf:"varint,3,opt,name=green,proto3" json:"green,omitempty"`
	Blue  int32 `protobuf:"varint,4,opt,name=blue,proto3" json:"blue,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *ColorState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ColorState) Reset() { *m = ColorState{} }

// String implements proto.Message.
func (m *ColorState) String() string { return proto.CompactTextString(m) }

// ColorStateFrom converts led.State.
func ColorStateFrom(s led.State) *ColorState {
	return &ColorState{
		White: int32(s.White),
		Red:   int32(s.Red),
		Green: int32(s.Green),
		Blue:  int32(s.Blue),
	}
}

// State converts to led.State.
func (m *ColorState) State() led.State {
	return led.State{
		White: int(m.White),
		Red:   int(m.Red),
		Green: int(m.Green),
		Blue:  int(m.Blue),
	}
}

// EncodeState serializes a state.
func EncodeState(s led.State) ([]byte, error) {
	return proto.Marshal(ColorStateFrom(s))
}

// DecodeState deserializes a state.
func DecodeState(data []byte) (led.State, error) {
	var m ColorState
	if err := proto.Unmarshal(data, &m); err != nil {
		return led.State{}, err
	}
	return m.State(), nil
}
