// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ninep

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"9fans.net/go/plan9"
)

// Protocol constants. The wire format is 9P2000 with the limits of the
// reference window-manager service, not the more generous ones common
// elsewhere.
const (
	// Version is the only protocol version accepted. Tversion must
	// carry exactly this string.
	Version = "9P2000"

	// MinMsize and MaxMsize bound the negotiated message size. A
	// client request outside the range is clamped, not refused.
	MinMsize = 256
	MaxMsize = 8192

	// MaxWalkElements caps the number of path elements in one Twalk.
	MaxWalkElements = 16

	// IOHeaderSize is the per-message overhead reserved when clamping
	// read and write counts: size[4] type[1] tag[2] fid[4] offset[8]
	// count[4] plus one spare byte.
	IOHeaderSize = 24

	// minMessageSize is the smallest legal message: size[4] type[1]
	// tag[2].
	minMessageSize = 7
)

// Wire-visible errors. The strings travel in Rerror replies and are
// part of the protocol contract; tests match them exactly.
var (
	ErrFidNotFound    = errors.New("fid not found")
	ErrFidInUse       = errors.New("fid in use")
	ErrNewfidInUse    = errors.New("newfid in use")
	ErrWalkOpenFid    = errors.New("cannot walk open fid")
	ErrBadVersion     = errors.New("invalid Tversion")
	ErrNoVersion      = errors.New("version not negotiated")
	ErrNotSupported   = errors.New("not supported")
	ErrNoAuth         = errors.New("authentication not required")
	ErrReadError      = errors.New("read error")
	ErrWriteError     = errors.New("write error")
	ErrIsDirectory    = errors.New("is directory")
	ErrWalkLimit      = errors.New("walk limit exceeded")
	ErrFrameTooLarge  = errors.New("message exceeds negotiated size")
	ErrFrameTooSmall  = errors.New("message shorter than header")
	ErrSessionClosed  = errors.New("session closed")
	ErrTagMismatch    = errors.New("reply tag does not match request")
	ErrUnexpectedType = errors.New("unexpected reply type")
)

// readFcall reads one 9P message, enforcing the size limit before any
// allocation. The declared length is validated against max; violations
// are fatal to the connection, matching the state machine's failure
// policy for framing errors.
func readFcall(r io.Reader, max uint32) (*plan9.Fcall, error) {
	var sizeBytes [4]byte
	if _, err := io.ReadFull(r, sizeBytes[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(sizeBytes[:])
	if size < minMessageSize {
		return nil, fmt.Errorf("%w: declared %d bytes", ErrFrameTooSmall, size)
	}
	if size > max {
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", ErrFrameTooLarge, size, max)
	}

	message := make([]byte, size)
	copy(message, sizeBytes[:])
	if _, err := io.ReadFull(r, message[4:]); err != nil {
		return nil, err
	}
	return plan9.ReadFcall(bytes.NewReader(message))
}

// writeFcall writes one 9P message.
func writeFcall(w io.Writer, f *plan9.Fcall) error {
	return plan9.WriteFcall(w, f)
}

// clampMsize forces a requested msize into [MinMsize, MaxMsize].
func clampMsize(requested uint32) uint32 {
	if requested < MinMsize {
		return MinMsize
	}
	if requested > MaxMsize {
		return MaxMsize
	}
	return requested
}

// clampCount forces a read or write count under the negotiated
// message size.
func clampCount(count uint32, msize uint32) uint32 {
	limit := msize - IOHeaderSize
	if count > limit {
		return limit
	}
	return count
}

// messageTypeName returns the metric label for a message type.
func messageTypeName(messageType uint8) string {
	switch messageType {
	case plan9.Tversion:
		return "Tversion"
	case plan9.Tauth:
		return "Tauth"
	case plan9.Tattach:
		return "Tattach"
	case plan9.Tflush:
		return "Tflush"
	case plan9.Twalk:
		return "Twalk"
	case plan9.Topen:
		return "Topen"
	case plan9.Tcreate:
		return "Tcreate"
	case plan9.Tread:
		return "Tread"
	case plan9.Twrite:
		return "Twrite"
	case plan9.Tclunk:
		return "Tclunk"
	case plan9.Tremove:
		return "Tremove"
	case plan9.Tstat:
		return "Tstat"
	case plan9.Twstat:
		return "Twstat"
	default:
		return fmt.Sprintf("unknown-%d", messageType)
	}
}
