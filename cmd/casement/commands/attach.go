// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"time"

	"9fans.net/go/plan9"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/casement/cmd/casement/cli"
	"github.com/bureau-foundation/casement/ninep"
)

// attachDetachByte ends an attach session: Ctrl-].
const attachDetachByte = 0x1d

// attachCommand connects the local terminal to a window's console:
// keystrokes go to the window's kbd device, console content comes
// back to the terminal. Detach with Ctrl-].
func attachCommand() *cli.Command {
	var conn connectFlags
	var pollInterval time.Duration
	return &cli.Command{
		Name:    "attach",
		Summary: "Attach the terminal to a window's console.",
		Usage:   "casement attach [flags] <window-id>",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("attach", pflag.ContinueOnError)
			conn.register(flags)
			flags.DurationVar(&pollInterval, "poll", 100*time.Millisecond, "console poll interval")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: casement attach <window-id>")
			}
			windowID := args[0]

			client, root, err := conn.connect()
			if err != nil {
				return err
			}
			defer client.Close()
			defer root.Clunk()

			cons, err := openDevice(root, windowID, "cons", plan9.OREAD)
			if err != nil {
				return err
			}
			defer cons.Clunk()
			kbd, err := openDevice(root, windowID, "kbd", plan9.OWRITE)
			if err != nil {
				return err
			}
			defer kbd.Clunk()

			stdinFd := int(os.Stdin.Fd())
			previous, err := term.MakeRaw(stdinFd)
			if err != nil {
				return fmt.Errorf("setting raw mode: %w", err)
			}
			defer term.Restore(stdinFd, previous)

			fmt.Printf("attached to window %s, detach with Ctrl-]\r\n", windowID)

			// Keystrokes: one reader goroutine shipping bytes to kbd.
			// The detach byte stops the session.
			done := make(chan error, 1)
			go func() {
				buffer := make([]byte, 128)
				for {
					n, err := os.Stdin.Read(buffer)
					if err != nil {
						done <- err
						return
					}
					for _, b := range buffer[:n] {
						if b == attachDetachByte {
							done <- nil
							return
						}
					}
					if _, err := kbd.Write(buffer[:n], 0); err != nil {
						done <- err
						return
					}
				}
			}()

			// Console: poll the grid and repaint when it changes.
			ticker := time.NewTicker(pollInterval)
			defer ticker.Stop()
			var last string
			for {
				select {
				case err := <-done:
					fmt.Printf("\r\ndetached\r\n")
					return err
				case <-ticker.C:
					data, err := cons.ReadAll()
					if err != nil {
						return err
					}
					content := string(data)
					if content == last {
						continue
					}
					last = content
					repaint(content)
				}
			}
		},
	}
}

// openDevice walks win/<id>/dev/<name> and opens it.
func openDevice(root *ninep.Fid, windowID, name string, mode uint8) (*ninep.Fid, error) {
	fid, err := root.Walk("win", windowID, "dev", name)
	if err != nil {
		return nil, err
	}
	if err := fid.Open(mode); err != nil {
		fid.Clunk()
		return nil, err
	}
	return fid, nil
}

// repaint clears the terminal and draws the console grid. The terminal
// is in raw mode, so lines need explicit carriage returns.
func repaint(content string) {
	fmt.Print("\x1b[2J\x1b[H")
	for _, line := range splitLines(content) {
		fmt.Printf("%s\r\n", line)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
