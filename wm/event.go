// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"fmt"

	"github.com/bureau-foundation/casement/lib/metrics"
)

// QueueCapacity is the fixed size of every event queue. Pushing into a
// full queue drops the oldest entry; the producer never blocks.
const QueueCapacity = 32

// EventKind classifies an input event.
type EventKind uint8

const (
	EventClick EventKind = iota
	EventDoubleClick
	EventHover
	EventKeyPress
	EventKeyRelease
	EventFocus
	EventBlur
)

// String returns the name used in event file lines.
func (k EventKind) String() string {
	switch k {
	case EventClick:
		return "click"
	case EventDoubleClick:
		return "dblclick"
	case EventHover:
		return "hover"
	case EventKeyPress:
		return "keypress"
	case EventKeyRelease:
		return "keyrelease"
	case EventFocus:
		return "focus"
	case EventBlur:
		return "blur"
	default:
		return "unknown"
	}
}

// Event is one queued input event. Button carries the mouse button
// mask for pointer events and the rune for key events.
type Event struct {
	Kind   EventKind
	X, Y   int
	Button int
	Msec   uint64
}

// Line formats the event as one event-file line.
func (e Event) Line() string {
	return fmt.Sprintf("%s x=%d y=%d button=%d msec=%d\n", e.Kind, e.X, e.Y, e.Button, e.Msec)
}

// EventQueue is a fixed-capacity ring of events. Queues are created
// lazily, one per widget (plus one per window for window-scoped
// events), and drained one event per read of the owner's event file.
type EventQueue struct {
	events [QueueCapacity]Event
	read   int
	write  int
	count  int
}

// NewEventQueue returns an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int { return q.count }

// Push appends an event. A full queue discards its oldest entry first.
func (q *EventQueue) Push(e Event) {
	if q.count == QueueCapacity {
		q.read = (q.read + 1) % QueueCapacity
		q.count--
		metrics.RecordEventDropped()
	}
	q.events[q.write] = e
	q.write = (q.write + 1) % QueueCapacity
	q.count++
}

// Pop removes and returns the oldest event. ok is false when empty.
func (q *EventQueue) Pop() (e Event, ok bool) {
	if q.count == 0 {
		return Event{}, false
	}
	e = q.events[q.read]
	q.read = (q.read + 1) % QueueCapacity
	q.count--
	return e, true
}

// readLine pops one event and formats it, the shape event files serve:
// one line per read, zero bytes when the queue is empty. The wire
// offset is ignored; the queue is the cursor.
func (q *EventQueue) readLine(count int) []byte {
	e, ok := q.Pop()
	if !ok {
		return nil
	}
	metrics.RecordEventDelivered()
	line := []byte(e.Line())
	if len(line) > count {
		line = line[:count]
	}
	return line
}
