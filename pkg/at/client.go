package at

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/ledctl.go/pkg/led"
)

// DefaultTimeout is the default time waiting for a complete reply.
const DefaultTimeout = time.Second

// Reply is the reply of a command. Lines contains everything received
// before the final OK or ERROR.
type Reply struct {
	Lines []string `json:"lines"`
	OK    bool     `json:"ok"`
}

// Client sends commands over a byte stream and collects replies.
type Client struct {
	Stream  io.ReadWriter
	Timeout time.Duration

	lineCh chan string
	err    error
	lock   sync.Mutex
}

// NewClient creates a Client and starts receiving from the stream.
func NewClient(stream io.ReadWriter) *Client {
	c := &Client{
		Stream:  stream,
		Timeout: DefaultTimeout,
		lineCh:  make(chan string, 16),
	}
	go c.receive()
	return c
}

func (c *Client) receive() {
	scanner := bufio.NewScanner(c.Stream)
	for scanner.Scan() {
		c.lineCh <- scanner.Text()
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	c.err = err
	close(c.lineCh)
}

// Do sends a line and waits for the final OK or ERROR.
// Lines received before sending are discarded.
func (c *Client) Do(line string) (*Reply, error) {
	if strings.IndexByte(line, LineTerminator) >= 0 {
		return nil, errors.New("line must not contain terminator")
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.drain()
	if _, err := io.WriteString(c.Stream, line+string(LineTerminator)); err != nil {
		return nil, err
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	reply := &Reply{}
	for {
		select {
		case l, ok := <-c.lineCh:
			if !ok {
				return nil, c.err
			}
			switch l {
			case ReplyOK:
				reply.OK = true
				return reply, nil
			case ReplyError:
				return reply, nil
			}
			reply.Lines = append(reply.Lines, l)
		case <-timer.C:
			return nil, ErrTimeout
		}
	}
}

func (c *Client) drain() {
	for {
		select {
		case l, ok := <-c.lineCh:
			if !ok {
				return
			}
			glog.V(2).Infof("discard %q", l)
		default:
			return
		}
	}
}

func (c *Client) expectOK(line string) (*Reply, error) {
	reply, err := c.Do(line)
	if err == nil && !reply.OK {
		err = ErrRejected
	}
	return reply, err
}

// Attention sends AT.
func (c *Client) Attention() error {
	_, err := c.expectOK(CmdAttention)
	return err
}

// SetColor sends AT+SETCOLOR and verifies the echo.
func (c *Client) SetColor(s led.State) error {
	line := FormatSetColor(s)
	reply, err := c.expectOK(line)
	if err != nil {
		return err
	}
	if len(reply.Lines) != 1 || reply.Lines[0] != line {
		return errors.New("unexpected echo")
	}
	return nil
}

// SaveColor sends AT+SAVECOLOR.
func (c *Client) SaveColor() error {
	_, err := c.expectOK(CmdSaveColor)
	return err
}

// Close closes the stream if possible.
func (c *Client) Close() error {
	if closer, ok := c.Stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
