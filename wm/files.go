// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"errors"
	"strings"

	"github.com/bureau-foundation/casement/vfs"
)

// Property-file I/O errors. The strings travel verbatim in error
// replies.
var (
	errWrite    = errors.New("write error")
	errRead     = errors.New("read error")
	errBadValue = errors.New("invalid value")
)

// readString adapts a string getter to the file read callback shape.
// Reads past the end return zero bytes.
func readString(get func() string) vfs.ReadFunc {
	return func(count int, offset int64) ([]byte, error) {
		s := get()
		if offset >= int64(len(s)) {
			return nil, nil
		}
		end := offset + int64(count)
		if end > int64(len(s)) {
			end = int64(len(s))
		}
		return []byte(s[offset:end]), nil
	}
}

// writeString adapts a string setter to the file write callback shape.
// Property writes must start at offset 0; one trailing newline is
// stripped so `echo value > file` does what it looks like.
func writeString(set func(string) error) vfs.WriteFunc {
	return func(data []byte, offset int64) error {
		if offset != 0 {
			return errWrite
		}
		return set(strings.TrimSuffix(string(data), "\n"))
	}
}

// readBool serves "0" or "1".
func readBool(get func() bool) vfs.ReadFunc {
	return readString(func() string {
		if get() {
			return "1"
		}
		return "0"
	})
}

// writeBool accepts 0/1/true/false.
func writeBool(set func(bool) error) vfs.WriteFunc {
	return writeString(func(s string) error {
		switch strings.TrimSpace(s) {
		case "1", "true":
			return set(true)
		case "0", "false":
			return set(false)
		default:
			return errBadValue
		}
	})
}

// readEvents serves one formatted event per read from a lazily created
// queue, or zero bytes when it is empty.
func readEvents(queue func() *EventQueue) vfs.ReadFunc {
	return func(count int, offset int64) ([]byte, error) {
		return queue().readLine(count), nil
	}
}

// readEmpty serves a permanently empty file.
func readEmpty(count int, offset int64) ([]byte, error) {
	return nil, nil
}
