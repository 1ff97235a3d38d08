// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"fmt"

	"github.com/bureau-foundation/casement/lib/config"
)

// Populate creates the configured startup windows and widgets. It goes
// through the same operations the ctl files use, so the resulting tree
// is indistinguishable from one a client built by hand.
func (r *Registry) Populate(scene config.SceneConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, windowScene := range scene.Windows {
		window, err := r.createWindow(nil, windowScene.Title, windowScene.Width, windowScene.Height)
		if err != nil {
			return fmt.Errorf("scene window %d: %w", i, err)
		}
		if windowScene.Rect != "" {
			if err := window.setRect(windowScene.Rect); err != nil {
				return fmt.Errorf("scene window %d: %w", i, err)
			}
		}

		for j, widgetScene := range windowScene.Widgets {
			kind, err := ParseKind(widgetScene.Type)
			if err != nil {
				return fmt.Errorf("scene window %d widget %d: %w", i, j, err)
			}
			widget, err := r.createWidget(window, kind)
			if err != nil {
				return fmt.Errorf("scene window %d widget %d: %w", i, j, err)
			}
			if widgetScene.Text != "" {
				widget.text = widgetScene.Text
			}
			if widgetScene.Rect != "" {
				if err := widget.setRect(widgetScene.Rect); err != nil {
					return fmt.Errorf("scene window %d widget %d: %w", i, j, err)
				}
			}
		}
	}
	return nil
}
