// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"9fans.net/go/plan9"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/casement/cmd/casement/cli"
)

// lsCommand lists a directory of the daemon's tree in server order.
func lsCommand() *cli.Command {
	var conn connectFlags
	var long bool
	return &cli.Command{
		Name:    "ls",
		Summary: "List a directory of the service tree.",
		Usage:   "casement ls [flags] [path]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			conn.register(flags)
			flags.BoolVarP(&long, "long", "l", false, "show stat details")
			return flags
		},
		Run: func(args []string) error {
			path := "/"
			if len(args) > 0 {
				path = args[0]
			}

			client, root, err := conn.connect()
			if err != nil {
				return err
			}
			defer client.Close()
			defer root.Clunk()

			fid, err := root.Walk(splitPath(path)...)
			if err != nil {
				return err
			}
			defer fid.Clunk()

			if !fid.IsDir() {
				fmt.Println(path)
				return nil
			}
			if err := fid.Open(plan9.OREAD); err != nil {
				return err
			}
			entries, err := fid.Dirread()
			if err != nil {
				return err
			}

			if !long {
				for _, entry := range entries {
					name := entry.Name
					if entry.Mode&plan9.DMDIR != 0 {
						name += "/"
					}
					fmt.Println(name)
				}
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, entry := range entries {
				kind := "-"
				if entry.Mode&plan9.DMDIR != 0 {
					kind = "d"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", kind, entry.Qid.Path, entry.Length, entry.Name)
			}
			return tw.Flush()
		},
	}
}
