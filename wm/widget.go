// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"fmt"

	"github.com/bureau-foundation/casement/vfs"
)

// Widget is one element of a window. All of its mutable state is
// reachable through the property files created alongside it; the
// struct fields are the backing store those callbacks read and write.
type Widget struct {
	registry *Registry
	window   *Window

	id   uint32
	kind Kind

	rect        string
	visible     bool
	enabled     bool
	text        string
	value       string
	placeholder string

	// events is created on first read of the widget's event file or
	// first event delivery, never before.
	events *EventQueue

	node *vfs.Node
}

// ID returns the widget id.
func (w *Widget) ID() uint32 { return w.id }

// Kind returns the widget type.
func (w *Widget) Kind() Kind { return w.kind }

// Window returns the owning window.
func (w *Widget) Window() *Window { return w.window }

// Rect returns the literal rect text.
func (w *Widget) Rect() string { return w.rect }

// Visible reports the visible flag.
func (w *Widget) Visible() bool { return w.visible }

// Enabled reports the enabled flag.
func (w *Widget) Enabled() bool { return w.enabled }

// Text returns the text property.
func (w *Widget) Text() string { return w.text }

// Value returns the value property.
func (w *Widget) Value() string { return w.value }

// Queue returns the widget's event queue, creating it on first use.
func (w *Widget) Queue() *EventQueue {
	if w.events == nil {
		w.events = NewEventQueue()
	}
	return w.events
}

// push delivers an event to the widget's queue.
func (w *Widget) push(e Event) {
	w.Queue().Push(e)
}

// setRect validates and stores a new rect, then re-renders.
func (w *Widget) setRect(s string) error {
	if _, err := parseRect(s); err != nil {
		return err
	}
	w.rect = s
	w.registry.render(w.window)
	return nil
}

// createFiles builds the widget's directory under the window's
// widgets directory:
//
//	{id}/
//	├── type rect value visible enabled event
//	└── properties/{text,placeholder}
//
// type is read-only; everything else under the widget's control is
// writable. Mutations of rect, value, visible, and text re-render the
// window; enabled does not (it changes behavior, not pixels — the
// renderer reads it on the next pass anyway).
func (w *Widget) createFiles(parent *vfs.Node) error {
	tree := w.registry.tree

	dir, err := tree.Mkdir(parent, fmt.Sprintf("%d", w.id))
	if err != nil {
		return err
	}
	w.node = dir

	reg := w.registry
	files := []struct {
		name  string
		read  vfs.ReadFunc
		write vfs.WriteFunc
	}{
		{"type", readString(func() string { return w.kind.String() }), nil},
		{"rect", readString(func() string { return w.rect }), writeString(w.setRect)},
		{"value", readString(func() string { return w.value }), writeString(func(s string) error {
			w.value = s
			reg.render(w.window)
			return nil
		})},
		{"visible", readBool(func() bool { return w.visible }), writeBool(func(v bool) error {
			w.visible = v
			reg.render(w.window)
			return nil
		})},
		{"enabled", readBool(func() bool { return w.enabled }), writeBool(func(v bool) error {
			w.enabled = v
			return nil
		})},
		{"event", readEvents(w.Queue), nil},
	}
	for _, f := range files {
		if _, err := tree.NewFile(dir, f.name, f.read, f.write); err != nil {
			return err
		}
	}

	properties, err := tree.Mkdir(dir, "properties")
	if err != nil {
		return err
	}
	if _, err := tree.NewFile(properties, "text",
		readString(func() string { return w.text }),
		writeString(func(s string) error {
			w.text = s
			reg.render(w.window)
			return nil
		})); err != nil {
		return err
	}
	if _, err := tree.NewFile(properties, "placeholder",
		readString(func() string { return w.placeholder }),
		writeString(func(s string) error {
			w.placeholder = s
			return nil
		})); err != nil {
		return err
	}
	return nil
}
