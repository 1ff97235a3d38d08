// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package namespace manages what a window's namespace is mounted to:
// nothing (local), a nested casement instance running as a child
// process, or a mounted filesystem (stub).
//
// A nested instance is a complete, independent copy of the service.
// The parent creates a Unix socketpair, hands one end to the child as
// fd 3, and keeps the other as a net.Conn. Parent-to-child bytes are
// the raw input channel: mouse and keyboard writes are forwarded
// verbatim, never framed. Child-to-parent bytes carry the framed
// update protocol (hello, frame, console); see protocol.go for the
// wire layout.
//
// The package knows nothing about windows or the filesystem tree; the
// wm registry owns the association between a window and its Mount.
package namespace
