// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"sort"
	"strconv"

	"9fans.net/go/plan9"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/casement/cmd/casement/cli"
	"github.com/bureau-foundation/casement/ninep"
)

// newwinCommand creates a window through win/ctl and prints its id.
func newwinCommand() *cli.Command {
	var conn connectFlags
	var width, height int
	return &cli.Command{
		Name:    "newwin",
		Summary: "Create a window and print its id.",
		Usage:   "casement newwin [flags] [title]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("newwin", pflag.ContinueOnError)
			conn.register(flags)
			flags.IntVar(&width, "width", 640, "window width in pixels")
			flags.IntVar(&height, "height", 480, "window height in pixels")
			return flags
		},
		Run: func(args []string) error {
			title := ""
			if len(args) > 0 {
				title = args[0]
			}

			client, root, err := conn.connect()
			if err != nil {
				return err
			}
			defer client.Close()
			defer root.Clunk()

			before, err := windowIDs(root)
			if err != nil {
				return err
			}

			ctl, err := root.Walk("win", "ctl")
			if err != nil {
				return err
			}
			defer ctl.Clunk()
			if err := ctl.Open(plan9.OWRITE); err != nil {
				return err
			}
			command := fmt.Sprintf("new %s %dx%d", title, width, height)
			if title == "" {
				command = fmt.Sprintf("new %dx%d", width, height)
			}
			if err := ctl.WriteString(command); err != nil {
				return err
			}

			after, err := windowIDs(root)
			if err != nil {
				return err
			}
			for _, id := range after {
				if !containsID(before, id) {
					fmt.Println(id)
					return nil
				}
			}
			return fmt.Errorf("window created but not found in listing")
		},
	}
}

// windowIDs lists the numeric entries of /win, sorted.
func windowIDs(root *ninep.Fid) ([]int, error) {
	win, err := root.Walk("win")
	if err != nil {
		return nil, err
	}
	defer win.Clunk()
	if err := win.Open(plan9.OREAD); err != nil {
		return nil, err
	}
	entries, err := win.Dirread()
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, entry := range entries {
		if id, err := strconv.Atoi(entry.Name); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func containsID(ids []int, id int) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
