// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Dialer opens a protocol connection to a service address. The address
// format matches the network: host:port for tcp, a socket path for
// unix.
type Dialer interface {
	DialContext(ctx context.Context, address string) (net.Conn, error)
}

// Listen creates a listener for the given network ("tcp" or "unix").
// A Unix listener first removes a stale socket file left by an
// unclean shutdown; refusing to start because a previous instance
// crashed would make every crash require manual cleanup.
func Listen(network, address string) (net.Listener, error) {
	switch network {
	case "tcp":
		return net.Listen("tcp", address)

	case "unix":
		if err := removeStaleSocket(address); err != nil {
			return nil, err
		}
		return net.Listen("unix", address)

	default:
		return nil, fmt.Errorf("unsupported listen network %q", network)
	}
}

// removeStaleSocket deletes a socket file nothing is listening on. A
// live listener is left alone so two daemons cannot fight over one
// path.
func removeStaleSocket(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}

	conn, err := net.Dial("unix", path)
	if err == nil {
		conn.Close()
		return fmt.Errorf("%s already has a listener", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing stale socket %s: %w", path, err)
	}
	return nil
}

// NewDialer returns a dialer for the given network.
func NewDialer(network string) (Dialer, error) {
	switch network {
	case "tcp":
		return &TCPDialer{}, nil
	case "unix":
		return &UnixDialer{}, nil
	default:
		return nil, fmt.Errorf("unsupported dial network %q", network)
	}
}
