// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/casement/ninep"
)

// connectFlags is the flag pair every command that talks to the daemon
// shares. Defaults come from CASEMENT_ADDRESS / CASEMENT_NETWORK so a
// shell session configures the daemon once.
type connectFlags struct {
	network string
	address string
}

func (f *connectFlags) register(flags *pflag.FlagSet) {
	defaultNetwork := os.Getenv("CASEMENT_NETWORK")
	if defaultNetwork == "" {
		defaultNetwork = "tcp"
	}
	defaultAddress := os.Getenv("CASEMENT_ADDRESS")
	if defaultAddress == "" {
		defaultAddress = "127.0.0.1:17010"
	}
	flags.StringVar(&f.network, "network", defaultNetwork, "daemon network: tcp or unix")
	flags.StringVar(&f.address, "address", defaultAddress, "daemon address")
}

// connect dials the daemon, negotiates the protocol, and attaches.
// The caller owns both returned handles.
func (f *connectFlags) connect() (*ninep.Client, *ninep.Fid, error) {
	client, err := ninep.Dial(f.network, f.address)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", f.address, err)
	}
	root, err := client.Attach(userName(), "")
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("attaching: %w", err)
	}
	return client, root, nil
}

func userName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "none"
}

// splitPath turns "win/1/title" into walk elements, tolerating leading
// and doubled slashes.
func splitPath(path string) []string {
	var elements []string
	for _, element := range strings.Split(path, "/") {
		if element != "" {
			elements = append(elements, element)
		}
	}
	return elements
}
