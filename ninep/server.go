// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ninep

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/casement/lib/metrics"
	"github.com/bureau-foundation/casement/vfs"
)

// Server serves a vfs tree to 9P2000 clients. Each connection gets
// its own goroutine and fid table; every request is handled under
// Guard, so file callbacks may touch shared service state freely.
type Server struct {
	// Tree is the filesystem served to clients. Required.
	Tree *vfs.Tree

	// Guard serializes request handling across connections with any
	// other mutator of the tree or the state behind its callbacks.
	// Nil means no locking (single-connection tests).
	Guard sync.Locker

	// Logger receives connection-level diagnostics. Nil discards.
	Logger *slog.Logger

	// IdleTimeout closes a connection that sends no request for this
	// long. Zero disables the limit.
	IdleTimeout time.Duration

	// started is the stat timestamp for every synthetic node, fixed
	// at first use.
	started     uint32
	startedOnce sync.Once
}

func (s *Server) lock() {
	if s.Guard != nil {
		s.Guard.Lock()
	}
}

func (s *Server) unlock() {
	if s.Guard != nil {
		s.Guard.Unlock()
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *Server) init() {
	s.startedOnce.Do(func() {
		s.started = uint32(time.Now().Unix())
	})
}

// ServeConn runs one client session to completion.
func (s *Server) ServeConn(conn net.Conn) {
	s.init()
	metrics.RecordConnectionOpen()
	defer metrics.RecordConnectionClose()

	logger := s.logger().With("remote", conn.RemoteAddr().String())
	logger.Debug("session started")
	newSession(s, conn, logger).run()
}

// Serve accepts connections until the context is canceled or the
// listener fails, then closes active sessions and waits for them to
// drain. Canceling the context is the normal shutdown path and
// returns nil.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.init()

	var (
		wg      sync.WaitGroup
		connsMu sync.Mutex
		conns   = make(map[net.Conn]struct{})
	)
	defer wg.Wait()

	// Unblock Accept and the session read loops when the context ends.
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
		connsMu.Lock()
		for conn := range conns {
			conn.Close()
		}
		connsMu.Unlock()
	})
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		connsMu.Lock()
		conns[conn] = struct{}{}
		connsMu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				connsMu.Lock()
				delete(conns, conn)
				connsMu.Unlock()
			}()
			s.ServeConn(conn)
		}()
	}
}
