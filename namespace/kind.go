// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import "fmt"

// Kind is what a window's namespace is mounted to.
type Kind uint8

const (
	// Local is the default: the window is rendered by this instance
	// and has no mount state.
	Local Kind = iota

	// Nested runs an independent child instance of the service that
	// renders into the window's buffer.
	Nested

	// Filesystem records a mounted-filesystem namespace. The kind is
	// tracked but carries no behavior.
	Filesystem
)

// String returns the ctl-command spelling of the kind.
func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case Nested:
		return "nested"
	case Filesystem:
		return "fs"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a ctl-command namespace kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "local":
		return Local, nil
	case "nested":
		return Nested, nil
	case "fs":
		return Filesystem, nil
	default:
		return 0, fmt.Errorf("unknown namespace kind %q", name)
	}
}
