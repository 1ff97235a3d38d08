// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bureau-foundation/casement/lib/codec"
)

// Child-to-parent messages are framed: one type byte, a 4-byte
// big-endian payload length, then the payload. The values are wire
// constants shared between parent and child builds.
const (
	msgHello   byte = 1 // CBOR Hello, sent once before anything else
	msgFrame   byte = 2 // compression tag byte + compressed screen pixels
	msgConsole byte = 3 // UTF-8 text for the window console
)

// maxPayload bounds a declared payload length. An 8K×8K RGBA frame is
// 256 MB uncompressed but frames travel compressed; 16 MB is generous
// for any real screen and small enough that a corrupt length cannot
// exhaust memory.
const maxPayload = 16 << 20

// ProtocolVersion is the framed update protocol version carried in the
// hello message. The parent refuses a child speaking a different one.
const ProtocolVersion = 1

// Hello is the first message a child sends: who it is and the buffer
// geometry it will render.
type Hello struct {
	PID      int `cbor:"pid"`
	Protocol int `cbor:"protocol"`
	Width    int `cbor:"width"`
	Height   int `cbor:"height"`
}

// writeMessage frames one message onto w.
func writeMessage(w io.Writer, messageType byte, payload []byte) error {
	if len(payload) > maxPayload {
		return fmt.Errorf("payload %d bytes exceeds limit %d", len(payload), maxPayload)
	}
	header := [5]byte{messageType}
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readMessage reads one framed message from r. A declared length over
// the limit is a protocol error; the caller must drop the connection.
func readMessage(r io.Reader) (messageType byte, payload []byte, err error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	length := binary.BigEndian.Uint32(header[1:])
	if length > maxPayload {
		return 0, nil, fmt.Errorf("message length %d exceeds limit %d", length, maxPayload)
	}
	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return header[0], payload, nil
}

func writeHello(w io.Writer, hello Hello) error {
	payload, err := codec.Marshal(hello)
	if err != nil {
		return fmt.Errorf("encoding hello: %w", err)
	}
	return writeMessage(w, msgHello, payload)
}

func decodeHello(payload []byte) (Hello, error) {
	var hello Hello
	if err := codec.Unmarshal(payload, &hello); err != nil {
		return Hello{}, fmt.Errorf("decoding hello: %w", err)
	}
	if hello.Protocol != ProtocolVersion {
		return Hello{}, fmt.Errorf("child speaks protocol %d, want %d", hello.Protocol, ProtocolVersion)
	}
	if hello.Width <= 0 || hello.Height <= 0 {
		return Hello{}, fmt.Errorf("bad hello geometry %dx%d", hello.Width, hello.Height)
	}
	return hello, nil
}
