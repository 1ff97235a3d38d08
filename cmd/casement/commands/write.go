// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"9fans.net/go/plan9"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/casement/cmd/casement/cli"
)

// writeCommand writes to a file in the service tree: the argument
// text, or stdin when no text is given. This is how ctl commands and
// property changes are issued from the shell.
func writeCommand() *cli.Command {
	var conn connectFlags
	return &cli.Command{
		Name:    "write",
		Summary: "Write to a file in the service tree.",
		Usage:   "casement write [flags] <path> [text...]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("write", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: casement write <path> [text...]")
			}

			var data []byte
			if len(args) > 1 {
				data = []byte(strings.Join(args[1:], " "))
			} else {
				stdin, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				data = stdin
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
			if err := fid.Open(plan9.OWRITE); err != nil {
				return err
			}
			_, err = fid.Write(data, 0)
			return err
		},
	}
}
