// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import "fmt"

// Buffer is an off-screen RGBA pixel buffer. The dev/screen file
// exposes its bytes verbatim; the draw interpreter and nested-instance
// frames write into it.
type Buffer struct {
	width  int
	height int
	pix    []byte // 4 bytes per pixel, row-major RGBA
}

// NewBuffer allocates a zeroed (transparent black) buffer.
func NewBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bad buffer size %dx%d", width, height)
	}
	return &Buffer{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*4),
	}, nil
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.height }

// Bytes returns the backing pixel storage. Callers must not hold the
// slice across mutations they do not control.
func (b *Buffer) Bytes() []byte { return b.pix }

// Slice returns up to count bytes of raw pixel data at offset, the
// read shape of the dev/screen file. Reads past the end return nil.
func (b *Buffer) Slice(offset int64, count int) []byte {
	if offset >= int64(len(b.pix)) {
		return nil
	}
	end := offset + int64(count)
	if end > int64(len(b.pix)) {
		end = int64(len(b.pix))
	}
	return b.pix[offset:end]
}

// SetBytes replaces the entire pixel contents. The source must match
// the buffer size exactly; nested-instance frames are full screens.
func (b *Buffer) SetBytes(pixels []byte) error {
	if len(pixels) != len(b.pix) {
		return fmt.Errorf("frame is %d bytes, buffer wants %d", len(pixels), len(b.pix))
	}
	copy(b.pix, pixels)
	return nil
}

// Fill sets every pixel in the rectangle [x0,y0)-[x1,y1) to color
// (0xRRGGBBAA). The rectangle is clipped to the buffer.
func (b *Buffer) Fill(x0, y0, x1, y1 int, color uint32) {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > b.width {
		x1 = b.width
	}
	if y1 > b.height {
		y1 = b.height
	}

	r := byte(color >> 24)
	g := byte(color >> 16)
	bl := byte(color >> 8)
	a := byte(color)
	for y := y0; y < y1; y++ {
		row := (y*b.width + x0) * 4
		for x := x0; x < x1; x++ {
			b.pix[row] = r
			b.pix[row+1] = g
			b.pix[row+2] = bl
			b.pix[row+3] = a
			row += 4
		}
	}
}

// At returns the packed 0xRRGGBBAA color at (x, y), or 0 outside the
// buffer. Test helper and compositor probe.
func (b *Buffer) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return 0
	}
	i := (y*b.width + x) * 4
	return uint32(b.pix[i])<<24 | uint32(b.pix[i+1])<<16 | uint32(b.pix[i+2])<<8 | uint32(b.pix[i+3])
}
