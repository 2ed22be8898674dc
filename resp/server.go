// server.go: TCP bootstrap for the RESP server
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package resp

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/agilira/bader"
)

// Server binds a TCP listener, starts the evictor once, and runs one
// goroutine per accepted connection. All connections share the store by
// reference; the store's own locking is the only coordination between
// dispatchers and the evictor.
type Server struct {
	config  bader.Config
	store   bader.Store
	evictor *bader.Evictor
	logger  bader.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool

	wg        sync.WaitGroup
	quit      chan struct{}
	connIDSeq uint64

	// Statistics
	totalConnections  uint64
	commandsProcessed uint64
}

// ServerStats holds server statistics.
type ServerStats struct {
	TotalConnections  uint64
	ActiveConnections int
	CommandsProcessed uint64
}

// NewServer creates a RESP server for the given store and evictor.
// The evictor may be nil; the server then relies on read-path expiry only.
func NewServer(store bader.Store, evictor *bader.Evictor, config bader.Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Server{
		config:  config,
		store:   store,
		evictor: evictor,
		logger:  config.Logger,
		conns:   make(map[net.Conn]struct{}),
		quit:    make(chan struct{}),
	}, nil
}

// ListenAndServe binds the configured address and serves until Close.
// A bind failure is returned immediately; the process entrypoint turns it
// into a non-zero exit.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on l until Close. Starts the evictor exactly
// once, alongside the accept loop.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if err := l.Close(); err != nil {
			s.logger.Debug("listener close", "error", err.Error())
		}
		return net.ErrClosed
	}
	s.listener = l
	s.mu.Unlock()

	if s.evictor != nil {
		s.evictor.Start()
	}

	s.logger.Info("server listening", "addr", l.Addr().String())

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			if err := conn.Close(); err != nil {
				s.logger.Debug("connection close", "error", err.Error())
			}
			return nil
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		atomic.AddUint64(&s.totalConnections, 1)
		id := atomic.AddUint64(&s.connIDSeq, 1)

		s.wg.Add(1)
		go func(nc net.Conn, connID uint64) {
			defer s.wg.Done()
			defer s.forget(nc)

			c := &clientConn{
				id:     connID,
				conn:   nc,
				reader: NewReader(nc),
				writer: NewWriter(nc),
				store:  s.store,
				logger: s.logger,
				srv:    s,
			}
			c.serve()
		}(conn, id)
	}
}

// Addr returns the bound listener address, or nil before Serve.
// Useful with ":0" listeners in tests.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops the listener, the evictor, and every open connection, then
// waits for connection goroutines to drain.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.quit)

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for conn := range s.conns {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Debug("connection close", "error", cerr.Error())
		}
	}
	s.mu.Unlock()

	if s.evictor != nil {
		s.evictor.Stop()
	}
	s.wg.Wait()

	s.logger.Info("server stopped",
		"connections_served", atomic.LoadUint64(&s.totalConnections),
		"commands_processed", atomic.LoadUint64(&s.commandsProcessed))
	return err
}

// Stats returns server statistics.
func (s *Server) Stats() ServerStats {
	s.mu.Lock()
	active := len(s.conns)
	s.mu.Unlock()

	return ServerStats{
		TotalConnections:  atomic.LoadUint64(&s.totalConnections),
		ActiveConnections: active,
		CommandsProcessed: atomic.LoadUint64(&s.commandsProcessed),
	}
}

// forget removes a finished connection from the registry.
func (s *Server) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}
