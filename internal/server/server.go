// Package server accepts overlay clients over TCP and turns their
// newline-delimited JSON into engine commands. One goroutine per connection;
// the command channel is the only thing shared with the engine.
package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/edmcoverlay/overlayce/internal/engine"
	"github.com/edmcoverlay/overlayce/pkg/graphic"
)

// ClientIDs hands out connection ids. The counter wraps; ids are scoped to
// the life of the process, and the TCP and websocket listeners share one
// counter so keys never collide across transports.
type ClientIDs struct {
	n atomic.Uint64
}

func (c *ClientIDs) Next() uint64 { return c.n.Add(1) }

type Server struct {
	addr  string
	out   chan<- engine.Command
	ids   *ClientIDs
	stats *engine.Stats
	log   *zap.Logger

	ready chan struct{}
	bound net.Addr
}

func New(addr string, out chan<- engine.Command, ids *ClientIDs, stats *engine.Stats, log *zap.Logger) *Server {
	return &Server{
		addr:  addr,
		out:   out,
		ids:   ids,
		stats: stats,
		log:   log,
		ready: make(chan struct{}),
	}
}

// Ready is closed once the listener is bound; Addr is valid after that.
func (s *Server) Ready() <-chan struct{} { return s.ready }
func (s *Server) Addr() net.Addr         { return s.bound }

// Listen binds the address and accepts connections until the context is
// cancelled. Accepted connections are handled on their own goroutines and
// are not waited for on shutdown; they die when their client hangs up or
// when the engine is gone.
func (s *Server) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.bound = ln.Addr()
	close(s.ready)

	// The supervising plugin greps stdout for this exact line before it
	// starts sending; it must not go through the logger.
	fmt.Fprintln(os.Stdout, "server: ready to accept connections")

	for {
		s.log.Debug("waiting for connection")
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}

		clientID := s.ids.Next()
		s.stats.Clients.Add(1)
		s.log.Debug("new client",
			zap.Uint64("client_id", clientID),
			zap.String("remote", conn.RemoteAddr().String()))
		go s.handle(ctx, conn, clientID)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn, clientID uint64) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log := s.log.With(zap.Uint64("client_id", clientID))

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		log.Debug("line received", zap.String("line", line))

		if !s.submit(ctx, log, clientID, line) {
			return
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		log.Warn("read failed", zap.Error(err))
		return
	}
	log.Debug("client disconnected")
}

// Submit parses one line and forwards it if it carries intent. Parse
// failures and empty messages are logged and skipped; only a dead engine
// ends the connection, reported by the false return.
func (s *Server) submit(ctx context.Context, log *zap.Logger, clientID uint64, line string) bool {
	g, err := graphic.Parse([]byte(line))
	if err != nil {
		log.Warn("could not parse line", zap.String("line", line), zap.Error(err))
		return true
	}
	if g.Drawable == nil && g.TTL != 0 {
		// nothing to draw and nothing to delete: usually a malformed client
		log.Warn("message without drawable", zap.String("line", line))
		return true
	}

	select {
	case s.out <- engine.Command{ClientID: clientID, Graphic: g}:
		return true
	case <-ctx.Done():
		log.Debug("engine gone, closing connection")
		return false
	}
}
