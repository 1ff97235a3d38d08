// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"fmt"

	"9fans.net/go/draw"
)

// pointerWrite parses a mouse line ("m <x> <y> <buttons>") and runs
// the hit-test pipeline for w. Callers hold the registry mutex; nested
// windows never get here (their mouse bytes forward verbatim).
func (r *Registry) pointerWrite(w *Window, data []byte) error {
	var x, y, buttons int
	if n, err := fmt.Sscanf(string(data), "m %d %d %d", &x, &y, &buttons); err != nil || n != 3 {
		return errWrite
	}
	w.lastPointer = fmt.Sprintf("m %d %d %d", x, y, buttons)
	r.pointerEvent(w, x, y, buttons)
	return nil
}

// pointerEvent delivers a pointer sample to whichever widget it hits.
// No hit, no event. Buttons 1, 2, and 4 click; anything else hovers.
func (r *Registry) pointerEvent(w *Window, x, y, buttons int) {
	hit := hitTest(w, x, y)
	if hit == nil {
		return
	}
	msec := r.msec()

	if buttons != 1 && buttons != 2 && buttons != 4 {
		hit.push(Event{Kind: EventHover, X: x, Y: y, Button: buttons, Msec: msec})
		return
	}

	// A second click on the same widget within the interval upgrades
	// to dblclick, then the tracking resets so a third click starts
	// over.
	kind := EventClick
	now := r.clk.Now()
	if w.lastClickWidget == hit && now.Sub(w.lastClickTime) <= r.doubleClickInterval {
		kind = EventDoubleClick
		w.lastClickWidget = nil
	} else {
		w.lastClickWidget = hit
		w.lastClickTime = now
	}

	r.focusWidget(w, hit, x, y, msec)
	hit.push(Event{Kind: kind, X: x, Y: y, Button: buttons, Msec: msec})
}

// focusWidget moves widget focus inside w, emitting blur to the old
// widget and focus to the new one.
func (r *Registry) focusWidget(w *Window, widget *Widget, x, y int, msec uint64) {
	if w.focusedWidget == widget {
		return
	}
	if w.focusedWidget != nil {
		w.focusedWidget.push(Event{Kind: EventBlur, X: x, Y: y, Msec: msec})
	}
	w.focusedWidget = widget
	if widget != nil {
		widget.push(Event{Kind: EventFocus, X: x, Y: y, Msec: msec})
	}
}

// hitTest returns the widget under the point, or nil. A hidden window
// swallows the sample, as does a point outside the window's rect.
// Later-created widgets paint over earlier ones, so the search runs in
// reverse creation order; hidden widgets never hit.
func hitTest(w *Window, x, y int) *Widget {
	if !w.visible {
		return nil
	}
	point := draw.Pt(x, y)
	windowRect, err := parseRect(w.rect)
	if err != nil || !point.In(windowRect) {
		return nil
	}
	for i := len(w.widgets) - 1; i >= 0; i-- {
		widget := w.widgets[i]
		if !widget.visible {
			continue
		}
		rect, err := parseRect(widget.rect)
		if err != nil {
			continue
		}
		if point.In(rect) {
			return widget
		}
	}
	return nil
}

// InjectPointer applies a pointer line ("m <x> <y> <buttons>") to the
// focused window, as if it had been written to the global mouse file.
// Used by the nested child mode for input forwarded from its parent.
func (r *Registry) InjectPointer(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.focused == nil {
		return nil
	}
	return r.pointerWrite(r.focused, []byte(line))
}

// InjectKeyboard applies keyboard bytes to the focused window, as if
// written to the global kbd file.
func (r *Registry) InjectKeyboard(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.focused == nil {
		return nil
	}
	return r.keyboardWrite(r.focused, data)
}

// keyboardWrite turns UTF-8 input into one keypress per rune for the
// focused widget. Without a focused widget the bytes vanish, matching
// a desktop with nothing selected.
func (r *Registry) keyboardWrite(w *Window, data []byte) error {
	if w.focusedWidget == nil {
		return nil
	}
	msec := r.msec()
	for _, char := range string(data) {
		w.focusedWidget.push(Event{Kind: EventKeyPress, Button: int(char), Msec: msec})
	}
	return nil
}
