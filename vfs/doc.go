// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs implements the in-memory synthetic filesystem tree the
// protocol layer serves.
//
// A [Tree] holds [Node] values whose content is one of three variants:
// [Dir] (insertion-ordered children with unique names), [File] (read
// callback plus optional write callback), or [Bind] (a transparent
// reference to another node). Files are synthetic: every read and
// write runs a callback against live service state, nothing is stored
// in the node itself.
//
// Resolution walks one path element at a time. Stepping onto a bind
// follows the target chain before continuing; a per-resolution visited
// set turns reference loops into [ErrBindCycle] instead of hanging.
//
// Removing a node detaches it from its parent and marks every node in
// the detached subtree removed. Holders of stale references (protocol
// fids that walked there earlier) get [ErrRemoved] from every
// subsequent operation rather than reads of freed state.
//
// The tree performs no locking. Callers serialize all access; in the
// daemon that is the window registry's mutex, taken at the protocol
// request boundary.
package vfs
