// Package sh provides an interactive shell talking to an LED controller.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"golang.org/x/net/websocket"

	"github.com/robotalks/ledctl.go/pkg/at"
	"github.com/robotalks/ledctl.go/pkg/led"
	"github.com/robotalks/ledctl.go/pkg/port"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *port.Config
	Conn   *Conn
}

// Conn is an open connection to a controller.
type Conn struct {
	Name   string
	Stream io.ReadWriteCloser
	Client *at.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = at.DefaultTimeout
	portConfig = port.Config{Baud: port.DefaultBaud}
	autoOpen   bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&AttentionCmd,
		&ColorCmd,
		&SaveCmd,
		&SendCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Reply timeout.")
	flag.StringVar(&portConfig.Name, "port", portConfig.Name, "Serial port or ws:// URL.")
	flag.IntVar(&portConfig.Baud, "baud", portConfig.Baud, "Serial baud rate.")
	flag.BoolVar(&autoOpen, "open", autoOpen, "Open the port on start.")
}

// AddCmds registers more commands, used during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *port.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Dial opens a serial port or a websocket URL.
func Dial(conf port.Config) (io.ReadWriteCloser, string, error) {
	if strings.HasPrefix(conf.Name, "ws://") || strings.HasPrefix(conf.Name, "wss://") {
		origin := "http://" + strings.SplitN(strings.SplitN(conf.Name, "://", 2)[1], "/", 2)[0] + "/"
		conn, err := websocket.Dial(conf.Name, "", origin)
		if err != nil {
			return nil, "", err
		}
		return conn, conf.Name, nil
	}
	stream, err := conf.Open()
	if err != nil {
		return nil, "", err
	}
	name := conf.Name
	if name == "" {
		name = "serial"
	}
	return stream, name, nil
}

// Open connects the controller.
func (s *Shell) Open(conf port.Config) error {
	stream, name, err := Dial(conf)
	if err != nil {
		return err
	}
	s.Close()
	client := at.NewClient(stream)
	client.Timeout = s.Timeout
	s.Conn = &Conn{Name: name, Stream: stream, Client: client}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
	return nil
}

// Close closes current connection.
func (s *Shell) Close() {
	if s.Conn != nil {
		s.Conn.Client.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// DoCommand sends a line and prints the reply.
func DoCommand(c *ishell.Context, line string) error {
	s := ShellFrom(c)
	if s.Conn == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	reply, err := s.Conn.Client.Do(line)
	if err != nil {
		c.Err(err)
		return err
	}
	out, err := FormatReply(reply, s.OutputJSON)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Print(out)
	if !reply.OK {
		return at.ErrRejected
	}
	return nil
}

// FormatReply renders a reply for display.
func FormatReply(reply *at.Reply, asJSON bool) (string, error) {
	if asJSON {
		if reply.Lines == nil {
			reply.Lines = []string{}
		}
		out, err := json.Marshal(reply)
		if err != nil {
			return "", err
		}
		return string(out) + "\n", nil
	}
	var sb strings.Builder
	for _, l := range reply.Lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	if reply.OK {
		sb.WriteString(at.ReplyOK)
	} else {
		sb.WriteString(at.ReplyError)
	}
	sb.WriteByte('\n')
	return sb.String(), nil
}

// ParseColor parses W R G B arguments.
func ParseColor(args []string) (led.State, error) {
	if len(args) != led.NumChannels {
		return led.State{}, fmt.Errorf("W R G B required")
	}
	var vals [led.NumChannels]int
	for n, arg := range args {
		val, err := strconv.Atoi(arg)
		if err != nil {
			return led.State{}, fmt.Errorf("invalid %s: %v", led.Channel(n), err)
		}
		if !led.InRange(val) {
			return led.State{}, fmt.Errorf("%s out of range: %d", led.Channel(n), val)
		}
		vals[n] = val
	}
	return led.State{White: vals[0], Red: vals[1], Green: vals[2], Blue: vals[3]}, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if autoOpen {
		if err := s.Open(*s.Config); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Name, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := port.List()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(ports) == 0 {
					ports = []string{}
				}
				out, err := json.Marshal(ports)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, name := range ports {
				c.Println(name)
			}
		},
	}

	// OpenCmd opens a serial port or websocket URL.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PORT|URL] [BAUD]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			conf := *s.Config
			if len(c.Args) > 0 {
				conf.Name = c.Args[0]
			}
			if len(c.Args) > 1 {
				baud, err := strconv.Atoi(c.Args[1])
				if err != nil {
					c.Err(fmt.Errorf("invalid BAUD: %v", err))
					return
				}
				conf.Baud = baud
			}
			if err := s.Open(conf); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes current connection.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// AttentionCmd sends AT.
	AttentionCmd = ishell.Cmd{
		Name: "at",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			DoCommand(c, at.CmdAttention)
		}),
	}

	// ColorCmd sets the color.
	ColorCmd = ishell.Cmd{
		Name:    "color",
		Aliases: []string{"c"},
		Help:    "W R G B",
		Func: MustBeConnected(func(c *ishell.Context) {
			state, err := ParseColor(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			DoCommand(c, at.FormatSetColor(state))
		}),
	}

	// SaveCmd sends AT+SAVECOLOR.
	SaveCmd = ishell.Cmd{
		Name: "save",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			DoCommand(c, at.CmdSaveColor)
		}),
	}

	// SendCmd sends a raw line.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "LINE",
		Func: MustBeConnected(func(c *ishell.Context) {
			DoCommand(c, strings.Join(c.Args, " "))
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := portConfig
	New(&conf).Run(flag.Args()...)
}
