// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"9fans.net/go/plan9"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/casement/cmd/casement/cli"
)

// readCommand copies a file's content to stdout.
func readCommand() *cli.Command {
	var conn connectFlags
	return &cli.Command{
		Name:    "read",
		Summary: "Read a file from the service tree to stdout.",
		Usage:   "casement read [flags] <path>",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("read", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: casement read <path>")
			}

			client, root, err := conn.connect()
			if err != nil {
				return err
			}
			defer client.Close()
			defer root.Clunk()

			fid, err := root.Walk(splitPath(args[0])...)
			if err != nil {
				return err
			}
			defer fid.Clunk()
			if err := fid.Open(plan9.OREAD); err != nil {
				return err
			}
			data, err := fid.ReadAll()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
