// Package websocket serves the LED command protocol over websocket
// connections, one session per connection.
package websocket

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/ledctl.go/pkg/at"
	fx "github.com/robotalks/ledctl.go/pkg/framework"
	"github.com/robotalks/ledctl.go/pkg/led"
)

// DefaultPath is the HTTP path accepting websocket connections.
const DefaultPath = "/at"

// Server accepts websocket connections.
type Server struct {
	Addr          string
	Path          string
	Display       *led.Display
	MaxLineLength int
	Banner        string

	connID uint64
}

// NewServer creates a Server.
func NewServer(addr string, display *led.Display) *Server {
	return &Server{
		Addr:          addr,
		Path:          DefaultPath,
		Display:       display,
		MaxLineLength: at.DefaultMaxLineLength,
	}
}

// Name implements Named.
func (s *Server) Name() string {
	return "websocket:" + s.Addr
}

// Handler returns the http.Handler serving sessions.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serveConn)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on an existing listener until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(s.Path, s.Handler())
	server := &http.Server{
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	glog.Infof("websocket listening on %s%s", ln.Addr(), s.Path)
	err := fx.RunWithContextCancel(ctx, func() { server.Close() }, func() error {
		return server.Serve(ln)
	})
	if err == http.ErrServerClosed {
		err = nil
	}
	return err
}

func (s *Server) serveConn(conn *websocket.Conn) {
	conn.PayloadType = websocket.TextFrame
	id := "ws:" + strconv.FormatUint(atomic.AddUint64(&s.connID, 1), 10)
	glog.Infof("session %s: connected from %s", id, conn.Request().RemoteAddr)
	session := at.NewSession(id, conn, s.Display)
	session.MaxLineLength = s.MaxLineLength
	session.Banner = s.Banner
	if err := session.Run(conn.Request().Context()); err != nil && err != context.Canceled {
		glog.Warningf("session %s: %v", id, err)
	}
}
