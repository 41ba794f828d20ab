package at

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand indicates the line matches no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrRejected indicates the peer replied ERROR.
	ErrRejected = errors.New("command rejected")
	// ErrTimeout indicates no complete reply was received in time.
	ErrTimeout = errors.New("reply timeout")
)

// MalformedCommandError indicates a set-color command without
// exactly four comma separated values.
type MalformedCommandError struct {
	Line   string
	Fields int
}

// Error implements error.
func (e *MalformedCommandError) Error() string {
	return fmt.Sprintf("malformed command %q: %d fields, expect %d", e.Line, e.Fields, setColorFields)
}

// IsCommandError tells if the error is caused by the content of a command
// rather than I/O.
func IsCommandError(err error) bool {
	var malformed *MalformedCommandError
	return errors.Is(err, ErrUnknownCommand) || errors.As(err, &malformed)
}
