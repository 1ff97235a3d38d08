// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Console is the character-grid state behind a dev/cons file: a fixed
// cols×rows grid of runes with a cursor. Writes are scanned for
// control bytes and ANSI CSI sequences; everything printable lands at
// the cursor. The grid scrolls up one row when output passes the
// bottom.
//
// The supported CSI subset is what line-oriented programs and the
// nested-instance console channel actually emit: cursor position
// (H, f), relative moves (A, B, C, D), erase display (J), and erase
// line (K). Styling sequences are consumed and ignored — the grid
// stores characters, not attributes.
type Console struct {
	cols int
	rows int
	grid [][]rune

	cursorX int
	cursorY int

	// pending holds an incomplete trailing escape sequence (or split
	// UTF-8 rune) until the next write completes it.
	pending []byte
}

// NewConsole returns a blank console. Dimensions are clamped to at
// least 1×1.
func NewConsole(cols, rows int) *Console {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	c := &Console{cols: cols, rows: rows}
	c.grid = make([][]rune, rows)
	for i := range c.grid {
		c.grid[i] = blankRow(cols)
	}
	return c
}

func blankRow(cols int) []rune {
	row := make([]rune, cols)
	for i := range row {
		row[i] = ' '
	}
	return row
}

// Size returns the grid dimensions.
func (c *Console) Size() (cols, rows int) { return c.cols, c.rows }

// Cursor returns the cursor position (column, row), zero-based.
func (c *Console) Cursor() (x, y int) { return c.cursorX, c.cursorY }

// String renders the grid as newline-separated rows with trailing
// blanks trimmed, the dev/cons read content.
func (c *Console) String() string {
	var sb strings.Builder
	for i, row := range c.grid {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.TrimRight(string(row), " "))
	}
	return sb.String() + "\n"
}

// maxPendingSequence bounds the held tail; a sequence that never
// completes is eventually discarded instead of pinning memory.
const maxPendingSequence = 4096

// Write applies a chunk of console output to the grid. A write ending
// mid-sequence parks the tail until the next write completes it.
func (c *Console) Write(data []byte) {
	buf := data
	if len(c.pending) > 0 {
		buf = append(c.pending, data...)
		c.pending = nil
	}

	for len(buf) > 0 {
		// State zero is the decoder's ground state; anything else at
		// the end of the chunk means a sequence was cut mid-way.
		seq, width, n, newState := ansi.DecodeSequence(buf, 0, nil)
		if n == 0 {
			break
		}
		if newState != 0 && n == len(buf) {
			// Incomplete sequence at the end of the chunk.
			if len(buf) <= maxPendingSequence {
				c.pending = append([]byte(nil), buf...)
			}
			return
		}
		switch {
		case width > 0:
			for _, r := range string(seq) {
				c.put(r)
			}
		case len(seq) >= 3 && seq[0] == 0x1b && seq[1] == '[':
			c.csi(seq)
		default:
			for _, b := range seq {
				c.control(b)
			}
		}
		buf = buf[n:]
	}
}

// put places a printable rune at the cursor and advances, wrapping and
// scrolling as needed.
func (c *Console) put(r rune) {
	if c.cursorX >= c.cols {
		c.cursorX = 0
		c.lineFeed()
	}
	c.grid[c.cursorY][c.cursorX] = r
	c.cursorX++
}

// control handles the C0 bytes the grid cares about.
func (c *Console) control(b byte) {
	switch b {
	case '\n':
		c.cursorX = 0
		c.lineFeed()
	case '\r':
		c.cursorX = 0
	case '\b':
		if c.cursorX > 0 {
			c.cursorX--
		}
	case '\t':
		c.cursorX = (c.cursorX/8 + 1) * 8
		if c.cursorX >= c.cols {
			c.cursorX = c.cols - 1
		}
	}
}

// lineFeed moves the cursor down, scrolling the grid when it passes
// the last row.
func (c *Console) lineFeed() {
	c.cursorY++
	if c.cursorY >= c.rows {
		copy(c.grid, c.grid[1:])
		c.grid[c.rows-1] = blankRow(c.cols)
		c.cursorY = c.rows - 1
	}
}

// csi interprets one CSI sequence: ESC '[' params final.
func (c *Console) csi(seq []byte) {
	final := seq[len(seq)-1]
	params := parseParams(seq[2 : len(seq)-1])

	param := func(i, def int) int {
		if i < len(params) && params[i] > 0 {
			return params[i]
		}
		return def
	}

	switch final {
	case 'H', 'f': // cursor position, 1-based row;col
		c.cursorY = clamp(param(0, 1)-1, 0, c.rows-1)
		c.cursorX = clamp(param(1, 1)-1, 0, c.cols-1)
	case 'A':
		c.cursorY = clamp(c.cursorY-param(0, 1), 0, c.rows-1)
	case 'B':
		c.cursorY = clamp(c.cursorY+param(0, 1), 0, c.rows-1)
	case 'C':
		c.cursorX = clamp(c.cursorX+param(0, 1), 0, c.cols-1)
	case 'D':
		c.cursorX = clamp(c.cursorX-param(0, 1), 0, c.cols-1)
	case 'J': // erase display
		c.eraseDisplay(firstParam(params))
	case 'K': // erase line
		c.eraseLine(firstParam(params))
	}
	// Anything else (SGR and friends) is consumed silently.
}

func firstParam(params []int) int {
	if len(params) > 0 {
		return params[0]
	}
	return 0
}

func parseParams(raw []byte) []int {
	if len(raw) == 0 {
		return nil
	}
	parts := strings.Split(string(raw), ";")
	params := make([]int, 0, len(parts))
	for _, p := range parts {
		n := 0
		for _, ch := range p {
			if ch < '0' || ch > '9' {
				n = 0
				break
			}
			n = n*10 + int(ch-'0')
		}
		params = append(params, n)
	}
	return params
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Console) eraseDisplay(mode int) {
	switch mode {
	case 0: // cursor to end
		c.eraseLine(0)
		for y := c.cursorY + 1; y < c.rows; y++ {
			c.grid[y] = blankRow(c.cols)
		}
	case 1: // start to cursor
		c.eraseLine(1)
		for y := 0; y < c.cursorY; y++ {
			c.grid[y] = blankRow(c.cols)
		}
	case 2: // whole display, cursor home
		for y := range c.grid {
			c.grid[y] = blankRow(c.cols)
		}
		c.cursorX, c.cursorY = 0, 0
	}
}

func (c *Console) eraseLine(mode int) {
	row := c.grid[c.cursorY]
	switch mode {
	case 0:
		for x := c.cursorX; x < c.cols; x++ {
			row[x] = ' '
		}
	case 1:
		for x := 0; x <= c.cursorX && x < c.cols; x++ {
			row[x] = ' '
		}
	case 2:
		c.grid[c.cursorY] = blankRow(c.cols)
	}
}
