// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

// Bundle is the device state of one window: the screen buffer, the
// draw interpreter targeting it, and the console grid. Every window
// owns exactly one.
type Bundle struct {
	Screen  *Buffer
	Draw    *Draw
	Console *Console
}

// Console dimensions are derived from the pixel size with a nominal
// 8x16 cell, floored at a usable minimum.
const (
	consoleCellWidth  = 8
	consoleCellHeight = 16
	consoleMinCols    = 20
	consoleMinRows    = 5
)

// NewBundle allocates device state for a width×height pixel window.
func NewBundle(width, height int) (*Bundle, error) {
	screen, err := NewBuffer(width, height)
	if err != nil {
		return nil, err
	}
	cols := width / consoleCellWidth
	rows := height / consoleCellHeight
	if cols < consoleMinCols {
		cols = consoleMinCols
	}
	if rows < consoleMinRows {
		rows = consoleMinRows
	}
	return &Bundle{
		Screen:  screen,
		Draw:    NewDraw(screen),
		Console: NewConsole(cols, rows),
	}, nil
}
