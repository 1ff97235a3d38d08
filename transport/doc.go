// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport provides the byte-stream listeners and dialers the
// protocol rides on: TCP for network clients, Unix sockets for local
// ones. The protocol layer sees only net.Listener and net.Conn; this
// package owns address handling and the stale-socket cleanup a Unix
// listener needs.
package transport
