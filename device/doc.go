// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package device implements the virtual device state behind the
// dev/{draw,screen,cons,mouse,kbd} files: an off-screen RGBA buffer,
// the binary draw-command interpreter that mutates it, and a
// character-grid console that understands enough ANSI to host line
// output from a nested instance.
//
// The package holds no locks and knows nothing about the filesystem;
// the wm registry wires these types to file callbacks and serializes
// access under its own guard.
package device
