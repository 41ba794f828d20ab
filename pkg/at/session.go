package at

import (
	"context"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/ledctl.go/pkg/framework"
	"github.com/robotalks/ledctl.go/pkg/led"
	"github.com/robotalks/ledctl.go/pkg/port"
)

// Session serves commands from one byte stream.
type Session struct {
	ID            string
	Stream        io.ReadWriter
	Display       *led.Display
	MaxLineLength int
	// Banner, if not empty, is sent as a line when the session starts.
	Banner string
	// Handler, if set, is called after every executed line.
	Handler func(line []byte, res Result)
}

// NewSession creates a Session with default line length.
func NewSession(id string, stream io.ReadWriter, d *led.Display) *Session {
	return &Session{
		ID:            id,
		Stream:        stream,
		Display:       d,
		MaxLineLength: DefaultMaxLineLength,
	}
}

// Name implements Named.
func (s *Session) Name() string {
	return s.ID
}

// Run implements Runnable. It returns nil when the stream reaches EOF.
// A closable stream is closed when ctx is done; otherwise a stalled
// read keeps the session blocked.
func (s *Session) Run(ctx context.Context) error {
	stream := port.NewStream(s.Stream).WithContext(ctx)
	var err error
	if _, ok := s.Stream.(io.Closer); ok {
		err = fx.RunWithContextCloser(ctx, stream, func() error { return s.serve(stream) })
	} else {
		err = s.serve(stream)
	}
	if err == io.EOF {
		glog.Infof("session %s: closed by peer", s.ID)
		return nil
	}
	return err
}

func (s *Session) serve(stream *port.Stream) error {
	if s.Banner != "" {
		if _, err := io.WriteString(stream, s.Banner+string(LineTerminator)); err != nil {
			return err
		}
	}
	reader := NewLineReader(stream, s.MaxLineLength)
	interp := NewInterpreter(s.Display, stream)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			return err
		}
		res, err := interp.Exec(line)
		if err != nil {
			return err
		}
		if res.OK() {
			glog.V(2).Infof("session %s: %q %s OK", s.ID, line, res.Kind)
		} else {
			glog.Warningf("session %s: %q: %v", s.ID, line, res.Err)
		}
		if h := s.Handler; h != nil {
			h(line, res)
		}
	}
}
