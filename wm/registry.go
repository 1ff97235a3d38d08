// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/casement/device"
	"github.com/bureau-foundation/casement/lib/clock"
	"github.com/bureau-foundation/casement/lib/metrics"
	"github.com/bureau-foundation/casement/lib/version"
	"github.com/bureau-foundation/casement/namespace"
	"github.com/bureau-foundation/casement/vfs"
)

// Spawner starts nested instances. The daemon supplies one wired to
// its own binary; tests supply fakes. A nil spawner fails every
// `mount nested`.
type Spawner interface {
	Spawn(spec SpawnSpec) (*namespace.Mount, error)
}

// SpawnSpec describes the nested instance a window wants.
type SpawnSpec struct {
	WindowID uint32
	Width    int
	Height   int

	// OnFrame and OnConsole are invoked from the mount's reader
	// goroutine and do their own registry locking.
	OnFrame   func(pixels []byte)
	OnConsole func(text string)
}

// Options configures a Registry.
type Options struct {
	// Logger receives subsystem diagnostics. Nil discards.
	Logger *slog.Logger

	// Clock supplies event timestamps and double-click timing. Nil
	// means the real clock.
	Clock clock.Clock

	// Renderer is invoked synchronously after every visible mutation.
	// Nil means no rendering (headless).
	Renderer Renderer

	// Spawner starts nested instances. Nil rejects nested mounts.
	Spawner Spawner

	// ScreenWidth and ScreenHeight size the root screen buffer and the
	// default window content. Zero means 800x600.
	ScreenWidth  int
	ScreenHeight int

	// DoubleClickInterval is the maximum gap between clicks on the
	// same widget for the second to be a dblclick. Zero means 500ms.
	DoubleClickInterval time.Duration
}

// Registry owns the window tree and the filesystem exposing it. Its
// mutex is the server's Guard: every protocol request, scene mutation,
// and nested-frame composite runs under it.
type Registry struct {
	mu sync.Mutex

	tree     *vfs.Tree
	logger   *slog.Logger
	clk      clock.Clock
	renderer Renderer
	spawner  Spawner

	screenWidth         int
	screenHeight        int
	doubleClickInterval time.Duration

	// rootBundle backs the global /dev files.
	rootBundle *device.Bundle

	windows      map[uint32]*Window
	nextWindowID uint32
	focused      *Window

	// winDir is /win, the parent of top-level windows.
	winDir *vfs.Node

	// started anchors event timestamps: msec values count from here.
	started time.Time
}

// New builds a registry and its filesystem tree:
//
//	/
//	├── win/ctl
//	├── dev/{draw,screen,cons,mouse,kbd}
//	└── mnt/wm/{version,ctl,events}
func New(options Options) (*Registry, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	width := options.ScreenWidth
	height := options.ScreenHeight
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}
	interval := options.DoubleClickInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	rootBundle, err := device.NewBundle(width, height)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		tree:                vfs.New(),
		logger:              logger.With("component", "wm"),
		clk:                 clk,
		renderer:            options.Renderer,
		spawner:             options.Spawner,
		screenWidth:         width,
		screenHeight:        height,
		doubleClickInterval: interval,
		rootBundle:          rootBundle,
		windows:             make(map[uint32]*Window),
		nextWindowID:        1,
		started:             clk.Now(),
	}
	if err := r.buildTree(); err != nil {
		return nil, err
	}
	return r, nil
}

// Tree returns the filesystem served to clients.
func (r *Registry) Tree() *vfs.Tree { return r.tree }

// Guard returns the mutex the protocol server must hold around each
// request.
func (r *Registry) Guard() sync.Locker { return &r.mu }

// RootBundle returns the device state behind the global /dev files.
func (r *Registry) RootBundle() *device.Bundle { return r.rootBundle }

// buildTree creates the static part of the filesystem.
func (r *Registry) buildTree() error {
	root := r.tree.Root()

	win, err := r.tree.Mkdir(root, "win")
	if err != nil {
		return err
	}
	r.winDir = win
	winCtl, err := r.tree.NewFile(win, "ctl", readEmpty, func(data []byte, offset int64) error {
		return r.newWindowCtl(nil, data, offset)
	})
	if err != nil {
		return err
	}

	if err := r.buildRootDevices(root); err != nil {
		return err
	}

	mnt, err := r.tree.Mkdir(root, "mnt")
	if err != nil {
		return err
	}
	wm, err := r.tree.Mkdir(mnt, "wm")
	if err != nil {
		return err
	}
	if _, err := r.tree.NewFile(wm, "version",
		readString(func() string { return "casement " + version.Short() + "\n" }), nil); err != nil {
		return err
	}
	if _, err := r.tree.NewBind(wm, "ctl", winCtl); err != nil {
		return err
	}
	// Reserved for aggregated events; reads empty until then.
	_, err = r.tree.NewFile(wm, "events", readEmpty, nil)
	return err
}

// buildRootDevices creates the global /dev backed by the root screen.
// Input written here routes through the focused window.
func (r *Registry) buildRootDevices(root *vfs.Node) error {
	dev, err := r.tree.Mkdir(root, "dev")
	if err != nil {
		return err
	}

	if _, err := r.tree.NewFile(dev, "draw",
		readString(r.rootBundle.Draw.Status),
		func(data []byte, offset int64) error {
			if err := r.rootBundle.Draw.HandleWrite(data); err != nil {
				return err
			}
			r.render(nil)
			return nil
		}); err != nil {
		return err
	}

	if _, err := r.tree.NewFile(dev, "screen",
		func(count int, offset int64) ([]byte, error) {
			return r.rootBundle.Screen.Slice(offset, count), nil
		}, nil); err != nil {
		return err
	}

	if _, err := r.tree.NewFile(dev, "cons",
		readString(r.rootBundle.Console.String),
		func(data []byte, offset int64) error {
			r.rootBundle.Console.Write(data)
			return nil
		}); err != nil {
		return err
	}

	if _, err := r.tree.NewFile(dev, "mouse",
		readString(func() string {
			if r.focused != nil {
				return r.focused.lastPointer
			}
			return "m 0 0 0"
		}),
		func(data []byte, offset int64) error {
			if r.focused == nil {
				return nil
			}
			if r.focused.mount != nil {
				return r.focused.mount.ForwardInput(data)
			}
			return r.pointerWrite(r.focused, data)
		}); err != nil {
		return err
	}

	_, err = r.tree.NewFile(dev, "kbd",
		func(count int, offset int64) ([]byte, error) { return nil, errRead },
		func(data []byte, offset int64) error {
			if r.focused == nil {
				return nil
			}
			if r.focused.mount != nil {
				return r.focused.mount.ForwardInput(data)
			}
			return r.keyboardWrite(r.focused, data)
		})
	return err
}

// createWindow makes a window under parent (nil for top level), builds
// its files, focuses it, and renders. Callers hold the registry mutex.
func (r *Registry) createWindow(parent *Window, title string, width, height int) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bad window size %dx%d", width, height)
	}

	id := r.nextWindowID
	r.nextWindowID++

	if title == "" {
		title = fmt.Sprintf("Window %d", id)
	}

	w := &Window{
		registry:     r,
		id:           id,
		title:        title,
		rect:         fmt.Sprintf("100 100 %d %d", width, height),
		visible:      true,
		width:        width,
		height:       height,
		parent:       parent,
		nextWidgetID: 1,
		lastPointer:  "m 0 0 0",
	}

	parentDir := r.winDir
	if parent != nil {
		parentDir = parent.winDir
	}
	if err := w.createFiles(parentDir); err != nil {
		return nil, err
	}

	if parent != nil {
		parent.children = append(parent.children, w)
	}
	r.windows[id] = w
	metrics.RecordWindowCreated()
	r.logger.Info("window created", "id", id, "title", title, "width", width, "height", height)

	r.focusWindow(w)
	r.render(w)
	return w, nil
}

// createWidget makes a widget of the named kind inside w. Callers hold
// the registry mutex.
func (r *Registry) createWidget(w *Window, kind Kind) (*Widget, error) {
	id := w.nextWidgetID
	w.nextWidgetID++

	widget := &Widget{
		registry: r,
		window:   w,
		id:       id,
		kind:     kind,
		rect:     "0 0 0 0",
		visible:  true,
		enabled:  true,
	}
	if err := widget.createFiles(w.widgetsDir); err != nil {
		return nil, err
	}

	w.widgets = append(w.widgets, widget)
	metrics.RecordWidgetCreated()
	r.logger.Debug("widget created", "window", w.id, "widget", id, "type", kind.String())

	r.render(w)
	return widget, nil
}

// focusWindow moves window focus, emitting blur to the old window's
// queue and focus to the new one's. Callers hold the registry mutex.
func (r *Registry) focusWindow(w *Window) {
	if r.focused == w {
		return
	}
	msec := r.msec()
	if r.focused != nil {
		r.focused.Queue().Push(Event{Kind: EventBlur, Msec: msec})
	}
	r.focused = w
	if w != nil {
		w.Queue().Push(Event{Kind: EventFocus, Msec: msec})
	}
}

// deleteWindow destroys w: unmounts any nested instance, detaches the
// subtree (stale fids fail with "node removed"), and forgets the
// window and its descendants. Callers hold the registry mutex.
func (r *Registry) deleteWindow(w *Window) error {
	// Children first; their subtrees nest inside w's.
	for len(w.children) > 0 {
		if err := r.deleteWindow(w.children[0]); err != nil {
			return err
		}
	}

	r.unmountWindow(w)

	if err := r.tree.Remove(w.node); err != nil {
		return err
	}
	delete(r.windows, w.id)

	if w.parent != nil {
		siblings := w.parent.children
		for i, child := range siblings {
			if child == w {
				w.parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}

	if r.focused == w {
		r.focusWindow(nil)
	}
	r.logger.Info("window deleted", "id", w.id)
	return nil
}

// mountNested spawns a nested instance for w. The device bundle is
// allocated first so the child's frames have somewhere to land. On
// spawn failure the namespace stays local. Callers hold the registry
// mutex.
func (r *Registry) mountNested(w *Window) error {
	if w.mount != nil {
		return fmt.Errorf("window %d already has a nested instance", w.id)
	}
	if r.spawner == nil {
		return errWrite
	}
	if _, err := w.devices(); err != nil {
		return err
	}

	mount, err := r.spawner.Spawn(SpawnSpec{
		WindowID:  w.id,
		Width:     w.width,
		Height:    w.height,
		OnFrame:   func(pixels []byte) { r.compositeFrame(w, pixels) },
		OnConsole: func(text string) { r.appendConsole(w, text) },
	})
	if err != nil {
		w.nsKind = namespace.Local
		return fmt.Errorf("mounting nested instance: %w", err)
	}
	w.mount = mount
	w.nsKind = namespace.Nested
	r.logger.Info("nested instance mounted", "window", w.id)
	return nil
}

// unmountWindow tears down any mount state. Idempotent. Callers hold
// the registry mutex.
func (r *Registry) unmountWindow(w *Window) {
	if w.mount != nil {
		w.mount.Unmount()
		w.mount = nil
	}
	w.nsKind = namespace.Local
}

// compositeFrame lands a nested frame in the window's buffer. Invoked
// from the mount's reader goroutine, so it takes the registry mutex
// itself.
func (r *Registry) compositeFrame(w *Window, pixels []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w.bundle == nil || w.node.Removed() {
		return
	}
	if err := w.bundle.Screen.SetBytes(pixels); err != nil {
		r.logger.Warn("nested frame dropped", "window", w.id, "error", err)
		return
	}
	r.render(w)
}

// appendConsole lands nested console output in the window's grid.
// Invoked from the mount's reader goroutine.
func (r *Registry) appendConsole(w *Window, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w.bundle == nil || w.node.Removed() {
		return
	}
	w.bundle.Console.Write([]byte(text))
}

// Shutdown terminates every nested instance. Called once when the
// daemon drains.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	mounts := make([]*namespace.Mount, 0)
	for _, w := range r.windows {
		if w.mount != nil {
			mounts = append(mounts, w.mount)
			w.mount = nil
			w.nsKind = namespace.Local
		}
	}
	r.mu.Unlock()

	// Unmount outside the lock: each one may wait out a kill grace
	// period.
	for _, mount := range mounts {
		mount.Unmount()
	}
}

// msec returns the event timestamp: milliseconds since the registry
// started.
func (r *Registry) msec() uint64 {
	return uint64(r.clk.Now().Sub(r.started) / time.Millisecond)
}
