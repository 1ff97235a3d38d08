// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/casement/cmd/casement/cli"
	"github.com/bureau-foundation/casement/lib/version"
)

// versionCommand prints the client version, and the daemon's when one
// is reachable.
func versionCommand() *cli.Command {
	var conn connectFlags
	return &cli.Command{
		Name:    "version",
		Summary: "Print client and daemon versions.",
		Usage:   "casement version [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("version", pflag.ContinueOnError)
			conn.register(flags)
			return flags
		},
		Run: func(args []string) error {
			fmt.Printf("casement %s\n", version.Info())

			client, root, err := conn.connect()
			if err != nil {
				// The client version alone is still useful offline.
				return nil
			}
			defer client.Close()
			defer root.Clunk()

			fid, err := root.Walk("mnt", "wm", "version")
			if err != nil {
				return err
			}
			defer fid.Clunk()
			if err := fid.Open(0); err != nil {
				return err
			}
			data, err := fid.ReadAll()
			if err != nil {
				return err
			}
			fmt.Printf("daemon %s\n", strings.TrimSpace(strings.TrimPrefix(string(data), "casement")))
			return nil
		},
	}
}
