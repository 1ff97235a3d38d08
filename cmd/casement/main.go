// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Casement is the CLI client for the casement daemon. Every operation
// is a file operation against the daemon's synthetic tree: ls walks
// and lists, read and write move bytes, newwin writes the window
// control file, attach streams a window's console and keyboard.
package main

import (
	"os"

	"github.com/bureau-foundation/casement/cmd/casement/commands"
	"github.com/bureau-foundation/casement/lib/process"
)

func main() {
	if err := commands.Root().Execute(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}
