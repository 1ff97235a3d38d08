// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Draw opcodes. The dev/draw write format is binary: one opcode byte,
// three pad bytes, then 32-bit little-endian fields. The values are
// wire constants shared with existing clients.
const (
	opAlloc   = 0  // allocate an image slot
	opFree    = 1  // free an image slot
	opRect    = 2  // fill a rectangle with a color
	opDraw    = 3  // bit blit
	opLine    = 4  // draw a line
	opPoly    = 5  // draw a polygon
	opText    = 6  // draw text
	opSet     = 7  // set the drawing color
	opEllipse = 8  // draw an ellipse or arc
	opBezier  = 9  // draw a bezier curve
	opImage   = 10 // load image data
	opFlush   = 11 // flush pending operations
	opQuery   = 12 // query capabilities
	opBatch   = 13 // batched operations
)

// Draw command errors.
var (
	ErrNotSupported = errors.New("not supported")
	ErrShortCommand = errors.New("draw command truncated")
)

// Draw interprets the dev/draw command stream against a screen
// buffer. Of the opcode set, rect, set, flush, alloc, and free are
// implemented; the rest are reserved and answer ErrNotSupported
// without touching any state.
type Draw struct {
	screen *Buffer

	// images is the client-managed image slot table. Slots are
	// created by alloc and referenced by the blit opcodes.
	images map[uint32]*Buffer

	color    uint32
	refresh  int
	clientID int
}

// NewDraw returns an interpreter targeting screen. The initial drawing
// color is opaque black.
func NewDraw(screen *Buffer) *Draw {
	return &Draw{
		screen: screen,
		images: make(map[uint32]*Buffer),
		color:  0x000000ff,
	}
}

// Status renders the dev/draw read content.
func (d *Draw) Status() string {
	return fmt.Sprintf("refresh=%d\nimages=%d\nclient=%d\n", d.refresh, len(d.images), d.clientID)
}

// Color returns the current drawing color.
func (d *Draw) Color() uint32 { return d.color }

// HandleWrite executes one draw command. The buffer is untouched when
// an error is returned.
func (d *Draw) HandleWrite(data []byte) error {
	if len(data) < 1 {
		return ErrShortCommand
	}

	switch data[0] {
	case opAlloc:
		return d.alloc(data)
	case opFree:
		return d.free(data)
	case opRect:
		return d.rect(data)
	case opSet:
		return d.set(data)
	case opFlush:
		d.refresh++
		return nil
	case opDraw, opLine, opPoly, opText, opEllipse, opBezier, opImage, opQuery, opBatch:
		return ErrNotSupported
	default:
		return fmt.Errorf("unknown draw opcode %d", data[0])
	}
}

// field reads the i-th 32-bit field after the opcode and pad bytes.
func field(data []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(data[4+4*i:])
}

// alloc: [id][width][height]. Allocating an existing id is an error;
// free it first.
func (d *Draw) alloc(data []byte) error {
	if len(data) < 16 {
		return ErrShortCommand
	}
	id := field(data, 0)
	width := int(field(data, 1))
	height := int(field(data, 2))

	if _, exists := d.images[id]; exists {
		return fmt.Errorf("image %d already allocated", id)
	}
	image, err := NewBuffer(width, height)
	if err != nil {
		return err
	}
	d.images[id] = image
	return nil
}

// free: [id]. Freeing an unknown id is an error.
func (d *Draw) free(data []byte) error {
	if len(data) < 8 {
		return ErrShortCommand
	}
	id := field(data, 0)
	if _, exists := d.images[id]; !exists {
		return fmt.Errorf("image %d not allocated", id)
	}
	delete(d.images, id)
	return nil
}

// rect: [x0][y0][x1][y1][color]. Fills directly into the screen.
func (d *Draw) rect(data []byte) error {
	if len(data) < 24 {
		return ErrShortCommand
	}
	x0 := int(int32(field(data, 0)))
	y0 := int(int32(field(data, 1)))
	x1 := int(int32(field(data, 2)))
	y1 := int(int32(field(data, 3)))
	color := field(data, 4)

	if x1 < x0 || y1 < y0 {
		return fmt.Errorf("bad rect %d,%d-%d,%d", x0, y0, x1, y1)
	}
	d.screen.Fill(x0, y0, x1, y1, color)
	d.refresh++
	return nil
}

// set: [color]. Changes the drawing color used by future operations.
func (d *Draw) set(data []byte) error {
	if len(data) < 8 {
		return ErrShortCommand
	}
	d.color = field(data, 0)
	return nil
}
