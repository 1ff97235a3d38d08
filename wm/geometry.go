// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"fmt"

	"9fans.net/go/draw"
)

// parseRect parses the literal rect format "x y width height" into a
// draw.Rectangle. Width and height must be non-negative.
func parseRect(s string) (draw.Rectangle, error) {
	var x, y, w, h int
	if _, err := fmt.Sscanf(s, "%d %d %d %d", &x, &y, &w, &h); err != nil {
		return draw.Rectangle{}, fmt.Errorf("bad rect %q: want \"x y width height\"", s)
	}
	if w < 0 || h < 0 {
		return draw.Rectangle{}, fmt.Errorf("bad rect %q: negative size", s)
	}
	return draw.Rect(x, y, x+w, y+h), nil
}

// formatRect renders a rectangle back to the literal text format.
func formatRect(r draw.Rectangle) string {
	return fmt.Sprintf("%d %d %d %d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
}
