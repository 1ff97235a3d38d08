// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the casement CLI command tree.
package commands

import (
	"github.com/bureau-foundation/casement/cmd/casement/cli"
)

// Root returns the top-level casement command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "casement",
		Summary: "Client for the casement window-manager service.",
		Subcommands: []*cli.Command{
			versionCommand(),
			lsCommand(),
			readCommand(),
			writeCommand(),
			newwinCommand(),
			attachCommand(),
		},
	}
}
