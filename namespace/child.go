// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"fmt"
	"net"
	"os"
)

// inheritedFd is where the parent places the child's socketpair end.
// ExtraFiles[0] in the parent becomes fd 3 after stdin/stdout/stderr.
const inheritedFd = 3

// InheritedChannel returns the update channel a nested child inherited
// from its parent as fd 3.
func InheritedChannel() (net.Conn, error) {
	file := os.NewFile(uintptr(inheritedFd), "parent-channel")
	if file == nil {
		return nil, fmt.Errorf("fd %d not inherited", inheritedFd)
	}
	// FileConn dups the fd internally, so the original is closed here.
	conn, err := net.FileConn(file)
	file.Close()
	if err != nil {
		return nil, fmt.Errorf("converting fd %d to net.Conn: %w", inheritedFd, err)
	}
	return conn, nil
}

// Child is the nested instance's side of the update channel. It frames
// outgoing hello/frame/console messages and reads the raw input bytes
// the parent forwards.
type Child struct {
	conn net.Conn
}

// NewChild wraps the inherited channel.
func NewChild(conn net.Conn) *Child {
	return &Child{conn: conn}
}

// SendHello announces the child's identity and buffer geometry. Must
// be the first message.
func (c *Child) SendHello(width, height int) error {
	return writeHello(c.conn, Hello{
		PID:      os.Getpid(),
		Protocol: ProtocolVersion,
		Width:    width,
		Height:   height,
	})
}

// SendFrame ships a full screen of raw RGBA pixels, compressed.
func (c *Child) SendFrame(pixels []byte) error {
	return writeMessage(c.conn, msgFrame, encodeFrame(pixels))
}

// SendConsole ships console text for the parent to append to the
// window's console grid.
func (c *Child) SendConsole(text string) error {
	return writeMessage(c.conn, msgConsole, []byte(text))
}

// ReadInput reads raw forwarded input bytes from the parent. Blocks
// until bytes arrive or the channel closes.
func (c *Child) ReadInput(buffer []byte) (int, error) {
	return c.conn.Read(buffer)
}

// Close releases the channel.
func (c *Child) Close() error {
	return c.conn.Close()
}
