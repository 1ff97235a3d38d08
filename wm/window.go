// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/casement/device"
	"github.com/bureau-foundation/casement/namespace"
	"github.com/bureau-foundation/casement/vfs"
)

// Window is one window in the tree. Everything a client can see or
// change lives behind the files created by createFiles; the struct is
// the backing store. All access is serialized by the registry mutex.
type Window struct {
	registry *Registry

	id      uint32
	title   string
	rect    string
	visible bool
	width   int
	height  int

	parent   *Window
	children []*Window

	widgets      []*Widget
	nextWidgetID uint32
	focusedWidget *Widget

	// events carries window-scoped focus/blur; created lazily.
	events *EventQueue

	// bundle is the window's device state, allocated on first device
	// use or nested mount.
	bundle *device.Bundle

	// Namespace state. kind is Local until a mount ctl command changes
	// it; mount is non-nil only while a nested instance runs.
	nsKind namespace.Kind
	mount  *namespace.Mount

	// lastPointer is the most recent pointer state line, the read
	// content of dev/mouse.
	lastPointer string

	// Double-click tracking: the widget and time of the last click.
	lastClickWidget *Widget
	lastClickTime   time.Time

	node       *vfs.Node
	widgetsDir *vfs.Node
	winDir     *vfs.Node
}

// ID returns the window id.
func (w *Window) ID() uint32 { return w.id }

// Title returns the window title.
func (w *Window) Title() string { return w.title }

// Rect returns the literal rect text.
func (w *Window) Rect() string { return w.rect }

// Visible reports the visible flag.
func (w *Window) Visible() bool { return w.visible }

// Size returns the window content dimensions in pixels.
func (w *Window) Size() (width, height int) { return w.width, w.height }

// Widgets returns the window's widgets in creation order. The slice is
// shared; callers must not modify it.
func (w *Window) Widgets() []*Widget { return w.widgets }

// FocusedWidget returns the widget holding input focus, or nil.
func (w *Window) FocusedWidget() *Widget { return w.focusedWidget }

// NamespaceKind returns the window's current namespace kind.
func (w *Window) NamespaceKind() namespace.Kind { return w.nsKind }

// Queue returns the window's event queue, creating it on first use.
func (w *Window) Queue() *EventQueue {
	if w.events == nil {
		w.events = NewEventQueue()
	}
	return w.events
}

// Bundle returns the window's device bundle, or nil if no device has
// been touched yet. Renderers composite from here.
func (w *Window) Bundle() *device.Bundle { return w.bundle }

// devices returns the window's device bundle, allocating it on first
// use sized to the window.
func (w *Window) devices() (*device.Bundle, error) {
	if w.bundle == nil {
		bundle, err := device.NewBundle(w.width, w.height)
		if err != nil {
			return nil, err
		}
		w.bundle = bundle
	}
	return w.bundle, nil
}

// setTitle stores a new title. Pure metadata; no render.
func (w *Window) setTitle(s string) error {
	w.title = s
	return nil
}

// setRect validates and stores a new rect, then re-renders.
func (w *Window) setRect(s string) error {
	s = strings.TrimRight(s, " ")
	if _, err := parseRect(s); err != nil {
		return err
	}
	w.rect = s
	w.registry.render(w)
	return nil
}

// setVisible stores the visible flag and re-renders.
func (w *Window) setVisible(v bool) error {
	w.visible = v
	w.registry.render(w)
	return nil
}

// createFiles builds the window's directory:
//
//	{id}/
//	├── title rect visible ctl events
//	├── widgets/
//	├── dev/{draw,screen,cons,mouse,kbd}
//	└── win/ctl            recursive namespace
func (w *Window) createFiles(parent *vfs.Node) error {
	tree := w.registry.tree

	dir, err := tree.Mkdir(parent, fmt.Sprintf("%d", w.id))
	if err != nil {
		return err
	}
	w.node = dir

	files := []struct {
		name  string
		read  vfs.ReadFunc
		write vfs.WriteFunc
	}{
		{"title", readString(func() string { return w.title }), writeString(w.setTitle)},
		{"rect", readString(func() string { return w.rect }), writeString(w.setRect)},
		{"visible", readBool(func() bool { return w.visible }), writeBool(w.setVisible)},
		{"ctl", readEmpty, w.ctlWrite},
		{"events", readEvents(w.Queue), nil},
	}
	for _, f := range files {
		if _, err := tree.NewFile(dir, f.name, f.read, f.write); err != nil {
			return err
		}
	}

	w.widgetsDir, err = tree.Mkdir(dir, "widgets")
	if err != nil {
		return err
	}

	if err := w.createDeviceFiles(dir); err != nil {
		return err
	}

	// The recursive namespace: windows created through this ctl nest
	// under this window.
	w.winDir, err = tree.Mkdir(dir, "win")
	if err != nil {
		return err
	}
	_, err = tree.NewFile(w.winDir, "ctl", readEmpty, func(data []byte, offset int64) error {
		return w.registry.newWindowCtl(w, data, offset)
	})
	return err
}

// createDeviceFiles builds dev/{draw,screen,cons,mouse,kbd} under dir.
// The device bundle itself stays unallocated until a file is touched.
func (w *Window) createDeviceFiles(dir *vfs.Node) error {
	tree := w.registry.tree

	dev, err := tree.Mkdir(dir, "dev")
	if err != nil {
		return err
	}

	// draw: binary command stream in, status text out.
	if _, err := tree.NewFile(dev, "draw",
		func(count int, offset int64) ([]byte, error) {
			bundle, err := w.devices()
			if err != nil {
				return nil, err
			}
			return readString(bundle.Draw.Status)(count, offset)
		},
		func(data []byte, offset int64) error {
			bundle, err := w.devices()
			if err != nil {
				return err
			}
			if err := bundle.Draw.HandleWrite(data); err != nil {
				return err
			}
			w.registry.render(w)
			return nil
		}); err != nil {
		return err
	}

	// screen: raw RGBA bytes, read-only.
	if _, err := tree.NewFile(dev, "screen",
		func(count int, offset int64) ([]byte, error) {
			bundle, err := w.devices()
			if err != nil {
				return nil, err
			}
			return bundle.Screen.Slice(offset, count), nil
		}, nil); err != nil {
		return err
	}

	// cons: console grid. Writes append at the cursor; the offset is
	// ignored, matching terminal semantics.
	if _, err := tree.NewFile(dev, "cons",
		func(count int, offset int64) ([]byte, error) {
			bundle, err := w.devices()
			if err != nil {
				return nil, err
			}
			return readString(bundle.Console.String)(count, offset)
		},
		func(data []byte, offset int64) error {
			bundle, err := w.devices()
			if err != nil {
				return err
			}
			bundle.Console.Write(data)
			return nil
		}); err != nil {
		return err
	}

	// mouse: pointer input in, last pointer state out. With a nested
	// instance mounted the raw bytes forward verbatim instead.
	if _, err := tree.NewFile(dev, "mouse",
		readString(func() string { return w.lastPointer }),
		func(data []byte, offset int64) error {
			if w.mount != nil {
				return w.mount.ForwardInput(data)
			}
			return w.registry.pointerWrite(w, data)
		}); err != nil {
		return err
	}

	// kbd: write-only keyboard input.
	_, err = tree.NewFile(dev, "kbd",
		func(count int, offset int64) ([]byte, error) { return nil, errRead },
		func(data []byte, offset int64) error {
			if w.mount != nil {
				return w.mount.ForwardInput(data)
			}
			return w.registry.keyboardWrite(w, data)
		})
	return err
}
