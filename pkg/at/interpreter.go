package at

import (
	"fmt"
	"io"

	"github.com/robotalks/ledctl.go/pkg/led"
)

// Result is the outcome of executing a line.
type Result struct {
	Kind Kind
	// Err is the command error, ERROR has been replied if set.
	Err error
}

// OK tells if the command succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Interpreter executes command lines against a Display and writes
// replies to Writer.
type Interpreter struct {
	Display *led.Display
	Writer  io.Writer
}

// NewInterpreter creates an Interpreter.
func NewInterpreter(d *led.Display, w io.Writer) *Interpreter {
	return &Interpreter{Display: d, Writer: w}
}

// Exec executes a single line without terminator. Command failures
// are replied with ERROR and reported in Result; the returned error
// is only for failures writing the reply.
func (i *Interpreter) Exec(line []byte) (Result, error) {
	res := Result{Kind: Classify(string(line))}
	switch res.Kind {
	case KindAttention, KindSaveColor:
	case KindSetColor:
		res.Err = i.setColor(line)
		if res.Err == nil {
			echo := make([]byte, len(line)+1)
			copy(echo, line)
			echo[len(line)] = LineTerminator
			if _, err := i.Writer.Write(echo); err != nil {
				return res, err
			}
		}
	default:
		res.Err = ErrUnknownCommand
	}
	return res, Respond(i.Writer, res.Err == nil)
}

func (i *Interpreter) setColor(line []byte) error {
	state, err := ParseSetColor(string(line))
	if err != nil {
		return err
	}
	if err := i.Display.ShowState(state); err != nil {
		return fmt.Errorf("display %s: %w", state, err)
	}
	return nil
}

// Respond writes OK or ERROR as a line.
func Respond(w io.Writer, ok bool) error {
	reply := ReplyError
	if ok {
		reply = ReplyOK
	}
	_, err := io.WriteString(w, reply+string(LineTerminator))
	return err
}
