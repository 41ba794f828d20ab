package port

import (
	"context"
	"io"
	"os"
)

// Stream provides blocking byte-at-a-time access over an io.ReadWriter.
//
// If the underlying reader is configured with a read timeout, an empty
// read is retried until a byte arrives or Done is closed, so a stalled
// line can still be stopped.
type Stream struct {
	ReadWriter io.ReadWriter
	Done       <-chan struct{}

	buf [1]byte
}

// NewStream wraps rw into a Stream.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{ReadWriter: rw}
}

// WithContext stops empty-read retries when ctx is done.
func (s *Stream) WithContext(ctx context.Context) *Stream {
	s.Done = ctx.Done()
	return s
}

// ReadByte implements io.ByteReader.
func (s *Stream) ReadByte() (byte, error) {
	for {
		n, err := s.ReadWriter.Read(s.buf[:])
		if n > 0 {
			return s.buf[0], nil
		}
		if err != nil && !os.IsTimeout(err) {
			return 0, err
		}
		select {
		case <-s.Done:
			return 0, context.Canceled
		default:
		}
	}
}

// WriteByte implements io.ByteWriter.
func (s *Stream) WriteByte(b byte) error {
	_, err := s.ReadWriter.Write([]byte{b})
	return err
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	return s.ReadWriter.Write(p)
}

// Close closes the underlying stream if it's an io.Closer.
func (s *Stream) Close() error {
	if closer, ok := s.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
