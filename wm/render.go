// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import "github.com/bureau-foundation/casement/lib/metrics"

// Renderer composites a window after a visible mutation. Pixel
// rasterization lives outside the service; the hook hands an external
// backend the window whose state changed (nil for the root screen).
// Render runs synchronously under the registry mutex, so
// implementations must not call back into the registry.
type Renderer interface {
	Render(window *Window)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(window *Window)

// Render calls f.
func (f RendererFunc) Render(window *Window) { f(window) }

// render invokes the hook and records the pass duration. Callers hold
// the registry mutex.
func (r *Registry) render(w *Window) {
	if r.renderer == nil {
		return
	}
	start := r.clk.Now()
	r.renderer.Render(w)
	metrics.RecordRender(r.clk.Now().Sub(start))
}
