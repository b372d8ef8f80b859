// Package tcp serves the relay's primary transport: a plain TCP listener
// speaking the newline-delimited command protocol, one goroutine per
// connection plus a write pump.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tail418/spellchat-server/internal/core"
)

const (
	// maxLineSize bounds a single protocol line.
	maxLineSize = 1 << 20
	// writeTimeout applies per outbound line; a peer that cannot accept a
	// line within it is cut loose and reaped by its own read loop.
	writeTimeout = 10 * time.Second
)

// Server accepts TCP connections and bridges each one to the dispatcher.
type Server struct {
	addr       string
	dispatcher *core.Dispatcher
	queueSize  int
	log        *zerolog.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewServer constructs a server that will listen on addr. queueSize bounds
// each connection's outbound buffer; zero means core.DefaultQueueSize.
func NewServer(addr string, dispatcher *core.Dispatcher, queueSize int, logger *zerolog.Logger) *Server {
	return &Server{
		addr:       addr,
		dispatcher: dispatcher,
		queueSize:  queueSize,
		log:        logger,
	}
}

// Listen binds the listener. Split from Serve so callers can learn the bound
// address (tests listen on port 0) before serving.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp listener bound")
	return nil
}

// Addr returns the bound listener address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until the context is cancelled or the listener
// fails. An accept error never takes down a live connection; cancellation
// closes the listener and waits for every connection goroutine.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		ln = s.ln
		s.mu.Unlock()
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn owns one connection for its whole lifetime: read loop here,
// write pump in a second goroutine, terminal cleanup through the dispatcher.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	client := core.NewClient(conn.RemoteAddr().String(), s.queueSize)
	s.log.Info().
		Str("client_id", client.ID).
		Str("addr", client.Addr).
		Msg("connection accepted")

	var pump sync.WaitGroup
	pump.Add(1)
	go func() {
		defer pump.Done()
		s.writePump(conn, client)
	}()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if quit := s.dispatcher.HandleLine(client, line); quit {
			break
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Debug().
			Err(err).
			Str("client_id", client.ID).
			Msg("read loop ended")
	}

	// Purge and unregister before the queue closes so the client is not a
	// visible recipient while half torn down.
	s.dispatcher.Disconnect(client)
	client.Close()
	pump.Wait()
	conn.Close()
	s.log.Info().
		Str("client_id", client.ID).
		Str("addr", client.Addr).
		Msg("connection closed")
}

// writePump drains the client's outbound queue to the socket. It exits when
// the queue is closed (after flushing what was already queued) or when a
// write fails, closing the socket so the read loop notices.
func (s *Server) writePump(conn net.Conn, client *core.Client) {
	for line := range client.Outbound() {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		if _, err := conn.Write([]byte(line)); err != nil {
			s.log.Debug().
				Err(err).
				Str("client_id", client.ID).
				Msg("write failed")
			conn.Close()
			return
		}
	}
}
