package at

import (
	"math"
	"strings"

	"github.com/robotalks/ledctl.go/pkg/led"
)

// Kind classifies a command line.
type Kind int

// Command kinds, in matching precedence.
const (
	KindUnknown Kind = iota
	KindAttention
	KindSetColor
	// KindSaveColor is accepted but does nothing yet.
	KindSaveColor
)

// Command texts.
const (
	CmdAttention = "AT"
	CmdSetColor  = "AT+SETCOLOR"
	CmdSaveColor = "AT+SAVECOLOR"
)

// Replies.
const (
	ReplyOK    = "OK"
	ReplyError = "ERROR"
)

const setColorFields = led.NumChannels

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindAttention:
		return CmdAttention
	case KindSetColor:
		return CmdSetColor
	case KindSaveColor:
		return CmdSaveColor
	}
	return "unknown"
}

// Classify matches a line against known commands. The first match wins.
func Classify(line string) Kind {
	switch {
	case line == CmdAttention:
		return KindAttention
	case strings.Contains(line, CmdSetColor):
		return KindSetColor
	case strings.Contains(line, CmdSaveColor):
		return KindSaveColor
	}
	return KindUnknown
}

// ParseSetColor extracts W,R,G,B from a line of the form PREFIX=W,R,G,B.
// Exactly four fields are required; every field is parsed with Atoi.
func ParseSetColor(line string) (led.State, error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return led.State{}, &MalformedCommandError{Line: line}
	}
	fields := strings.Split(line[eq+1:], ",")
	if len(fields) != setColorFields {
		return led.State{}, &MalformedCommandError{Line: line, Fields: len(fields)}
	}
	return led.State{
		White: Atoi(fields[0]),
		Red:   Atoi(fields[1]),
		Green: Atoi(fields[2]),
		Blue:  Atoi(fields[3]),
	}, nil
}

// FormatSetColor builds the set-color command line for a state.
func FormatSetColor(s led.State) string {
	return CmdSetColor + "=" + s.String()
}

// Atoi parses leading decimal digits permissively: leading white spaces
// are skipped, an optional sign is accepted, parsing stops at the first
// non-digit and no digits yields 0. The result saturates at int32 limits.
func Atoi(s string) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	var n int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n = n*10 + int64(s[i]-'0'); n > math.MaxInt32+1 {
			n = math.MaxInt32 + 1
		}
	}
	if neg {
		n = -n
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	return int(n)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
