package at

import "io"

// LineTerminator ends a line.
const LineTerminator byte = '\n'

// DefaultMaxLineLength is the line buffer capacity, including the
// zero sentinel.
const DefaultMaxLineLength = 64

// LineBuffer is a fixed capacity byte buffer with a write cursor.
// The stored bytes are always followed by a zero sentinel, so at most
// Cap()-1 bytes can be stored.
type LineBuffer struct {
	buf []byte
	n   int
}

// NewLineBuffer creates a LineBuffer of maxLength bytes, at least 2.
func NewLineBuffer(maxLength int) *LineBuffer {
	if maxLength < 2 {
		maxLength = 2
	}
	return &LineBuffer{buf: make([]byte, maxLength)}
}

// Reset clears the buffer.
func (b *LineBuffer) Reset() {
	b.n = 0
	b.buf[0] = 0
}

// Full tells if no more bytes can be stored.
func (b *LineBuffer) Full() bool {
	return b.n >= len(b.buf)-1
}

// Append stores a byte, it returns false if the buffer is full.
func (b *LineBuffer) Append(c byte) bool {
	if b.Full() {
		return false
	}
	b.buf[b.n] = c
	b.n++
	b.buf[b.n] = 0
	return true
}

// Len returns the number of stored bytes.
func (b *LineBuffer) Len() int {
	return b.n
}

// Cap returns the capacity including the sentinel.
func (b *LineBuffer) Cap() int {
	return len(b.buf)
}

// Bytes returns the stored bytes without the sentinel.
// It's only valid until the next Reset.
func (b *LineBuffer) Bytes() []byte {
	return b.buf[:b.n]
}

// LineReader reads lines from a byte stream into a reused LineBuffer.
type LineReader struct {
	Reader io.ByteReader

	buf *LineBuffer
}

// NewLineReader creates a LineReader.
func NewLineReader(r io.ByteReader, maxLength int) *LineReader {
	return &LineReader{Reader: r, buf: NewLineBuffer(maxLength)}
}

// ReadLine reads bytes until a terminator or the buffer is full.
// The terminator is not included. The returned bytes are only valid
// until the next call. On error, the bytes read so far are returned.
func (r *LineReader) ReadLine() ([]byte, error) {
	b := r.buf
	b.Reset()
	for !b.Full() {
		c, err := r.Reader.ReadByte()
		if err != nil {
			return b.Bytes(), err
		}
		if c == LineTerminator {
			break
		}
		b.Append(c)
	}
	return b.Bytes(), nil
}

// ReadLine reads a single line of at most maxLength-1 bytes.
func ReadLine(r io.ByteReader, maxLength int) ([]byte, error) {
	return NewLineReader(r, maxLength).ReadLine()
}
