// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/casement/namespace"
)

// errNotSupported covers declared-but-stubbed operations, like mounting
// a filesystem path. The string travels verbatim in error replies.
var errNotSupported = errors.New("not supported")

// newWindowCtl handles a write to a win/ctl file (the root one, the
// mnt/wm/ctl bind, or a window's recursive win/ctl). The only command
// is:
//
//	new <title> <w>x<h>
//
// The title is one whitespace-delimited token and may be omitted.
func (r *Registry) newWindowCtl(parent *Window, data []byte, offset int64) error {
	if offset != 0 {
		return errWrite
	}
	fields := strings.Fields(strings.TrimSuffix(string(data), "\n"))
	if len(fields) < 2 || len(fields) > 3 || fields[0] != "new" {
		return errWrite
	}

	title := ""
	sizeField := fields[1]
	if len(fields) == 3 {
		title = fields[1]
		sizeField = fields[2]
	}

	var width, height int
	if n, err := fmt.Sscanf(sizeField, "%dx%d", &width, &height); err != nil || n != 2 {
		return errWrite
	}

	_, err := r.createWindow(parent, title, width, height)
	return err
}

// ctlWrite handles a write to a window's ctl file. The command set:
//
//	widget <type>
//	title <text>
//	rect <x> <y> <w> <h>
//	show | hide | focus
//	mount local | mount nested | mount fs
//	unmount
//	delete
//
// Unknown commands answer "write error".
func (w *Window) ctlWrite(data []byte, offset int64) error {
	if offset != 0 {
		return errWrite
	}
	line := strings.TrimSuffix(string(data), "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return errWrite
	}
	r := w.registry

	switch fields[0] {
	case "widget":
		if len(fields) != 2 {
			return errWrite
		}
		kind, err := ParseKind(fields[1])
		if err != nil {
			return err
		}
		_, err = r.createWidget(w, kind)
		return err

	case "title":
		// Everything after the command word, spaces preserved.
		return w.setTitle(strings.TrimPrefix(line, "title "))

	case "rect":
		if len(fields) != 5 {
			return errWrite
		}
		return w.setRect(strings.Join(fields[1:], " "))

	case "show":
		return w.setVisible(true)

	case "hide":
		return w.setVisible(false)

	case "focus":
		r.focusWindow(w)
		return nil

	case "mount":
		if len(fields) < 2 {
			return errWrite
		}
		return w.mountCtl(fields[1:])

	case "unmount":
		r.unmountWindow(w)
		return nil

	case "delete":
		return r.deleteWindow(w)

	default:
		return errWrite
	}
}

// mountCtl switches the window's namespace kind.
func (w *Window) mountCtl(args []string) error {
	kind, err := namespace.ParseKind(args[0])
	if err != nil {
		return errWrite
	}

	switch kind {
	case namespace.Local:
		if len(args) != 1 {
			return errWrite
		}
		w.registry.unmountWindow(w)
		return nil

	case namespace.Nested:
		if len(args) != 1 {
			return errWrite
		}
		return w.registry.mountNested(w)

	case namespace.Filesystem:
		// The kind is tracked but mounting an actual path is not
		// implemented; a spec argument is refused rather than ignored.
		if len(args) != 1 {
			return errNotSupported
		}
		if w.mount != nil {
			return errWrite
		}
		w.nsKind = namespace.Filesystem
		return nil

	default:
		return errWrite
	}
}
