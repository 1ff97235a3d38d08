// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package integration exercises the served filesystem end to end: a
// real protocol server over loopback TCP, a real client, and the full
// window registry behind them.
package integration

import (
	"context"
	"encoding/binary"
	"strings"
	"testing"

	"9fans.net/go/plan9"

	"github.com/bureau-foundation/casement/lib/config"
	"github.com/bureau-foundation/casement/ninep"
	"github.com/bureau-foundation/casement/transport"
	"github.com/bureau-foundation/casement/wm"
)

// startService brings up a registry and serves it on an ephemeral TCP
// port, returning an attached client root.
func startService(t *testing.T, options wm.Options) (*wm.Registry, *ninep.Client, *ninep.Fid) {
	t.Helper()

	registry, err := wm.New(options)
	if err != nil {
		t.Fatalf("wm.New: %v", err)
	}

	listener, err := transport.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	server := &ninep.Server{Tree: registry.Tree(), Guard: registry.Guard()}
	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		server.Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		cancel()
		<-serveDone
		registry.Shutdown()
	})

	client, err := ninep.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	root, err := client.Attach("test", "")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return registry, client, root
}

func write(t *testing.T, root *ninep.Fid, path, text string) error {
	t.Helper()
	fid, err := root.Walk(strings.Split(path, "/")...)
	if err != nil {
		t.Fatalf("walk %s: %v", path, err)
	}
	defer fid.Clunk()
	if err := fid.Open(plan9.OWRITE); err != nil {
		return err
	}
	return fid.WriteString(text)
}

func read(t *testing.T, root *ninep.Fid, path string) string {
	t.Helper()
	fid, err := root.Walk(strings.Split(path, "/")...)
	if err != nil {
		t.Fatalf("walk %s: %v", path, err)
	}
	defer fid.Clunk()
	if err := fid.Open(plan9.OREAD); err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	data, err := fid.ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestWindowLifecycleOverWire(t *testing.T) {
	_, _, root := startService(t, wm.Options{})

	if err := write(t, root, "win/ctl", "new Editor 640x480"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := read(t, root, "win/1/title"); got != "Editor" {
		t.Fatalf("title = %q", got)
	}
	if got := read(t, root, "win/1/rect"); got != "100 100 640 480" {
		t.Fatalf("rect = %q", got)
	}

	// Move the window over the origin so pointer samples land inside
	// it, then a widget plus a click through the device file.
	if err := write(t, root, "win/1/rect", "0 0 640 480"); err != nil {
		t.Fatalf("move window: %v", err)
	}
	if err := write(t, root, "win/1/ctl", "widget button"); err != nil {
		t.Fatalf("widget: %v", err)
	}
	if err := write(t, root, "win/1/widgets/1/rect", "10 10 80 30"); err != nil {
		t.Fatalf("widget rect: %v", err)
	}
	if err := write(t, root, "win/1/dev/mouse", "m 20 20 1"); err != nil {
		t.Fatalf("mouse: %v", err)
	}

	// One event per read: focus first, then the click.
	eventFid, err := root.Walk("win", "1", "widgets", "1", "event")
	if err != nil {
		t.Fatalf("walk event: %v", err)
	}
	defer eventFid.Clunk()
	if err := eventFid.Open(plan9.OREAD); err != nil {
		t.Fatalf("open event: %v", err)
	}
	first, err := eventFid.Read(256, 0)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if !strings.HasPrefix(string(first), "focus ") {
		t.Fatalf("first event = %q", first)
	}
	second, err := eventFid.Read(256, 0)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if !strings.HasPrefix(string(second), "click x=20 y=20 button=1") {
		t.Fatalf("second event = %q", second)
	}
	if empty, _ := eventFid.Read(256, 0); len(empty) != 0 {
		t.Fatalf("drained queue served %q", empty)
	}
}

func TestDirectoryListingOverWire(t *testing.T) {
	_, _, root := startService(t, wm.Options{})

	if err := write(t, root, "win/ctl", "new 320x200"); err != nil {
		t.Fatalf("new: %v", err)
	}

	fid, err := root.Walk("win", "1")
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	defer fid.Clunk()
	if err := fid.Open(plan9.OREAD); err != nil {
		t.Fatalf("open: %v", err)
	}
	entries, err := fid.Dirread()
	if err != nil {
		t.Fatalf("Dirread: %v", err)
	}

	want := []string{"title", "rect", "visible", "ctl", "events", "widgets", "dev", "win"}
	if len(entries) != len(want) {
		t.Fatalf("%d entries, want %d", len(entries), len(want))
	}
	for i, entry := range entries {
		if entry.Name != want[i] {
			t.Errorf("entry %d = %q, want %q", i, entry.Name, want[i])
		}
	}
}

func TestDeleteInvalidatesOpenFids(t *testing.T) {
	_, _, root := startService(t, wm.Options{})

	if err := write(t, root, "win/ctl", "new 320x200"); err != nil {
		t.Fatalf("new: %v", err)
	}

	titleFid, err := root.Walk("win", "1", "title")
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	defer titleFid.Clunk()
	if err := titleFid.Open(plan9.OREAD); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := write(t, root, "win/1/ctl", "delete"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := titleFid.Read(64, 0); err == nil || err.Error() != "node removed" {
		t.Fatalf("stale read: %v, want %q", err, "node removed")
	}
	if _, err := root.Walk("win", "1"); err == nil {
		t.Fatal("deleted window still walkable")
	}
}

func TestCtlBindOverWire(t *testing.T) {
	_, _, root := startService(t, wm.Options{})

	if err := write(t, root, "mnt/wm/ctl", "new 320x200"); err != nil {
		t.Fatalf("new through bind: %v", err)
	}
	if got := read(t, root, "win/1/title"); got != "Window 1" {
		t.Fatalf("title = %q", got)
	}
	if got := read(t, root, "mnt/wm/version"); !strings.HasPrefix(got, "casement ") {
		t.Fatalf("version = %q", got)
	}
}

func TestSceneOverWire(t *testing.T) {
	registry, _, root := startService(t, wm.Options{})
	if err := registry.Populate(config.Default().Scene); err != nil {
		t.Fatalf("Populate: %v", err)
	}

	if got := read(t, root, "win/1/title"); got != "Demo Window" {
		t.Fatalf("title = %q", got)
	}
	if got := read(t, root, "win/1/widgets/1/properties/text"); got != "Click Me" {
		t.Fatalf("button text = %q", got)
	}
	if got := read(t, root, "win/1/widgets/2/type"); got != "label" {
		t.Fatalf("widget 2 type = %q", got)
	}
}

func TestUnmountIsIdempotentOverWire(t *testing.T) {
	_, _, root := startService(t, wm.Options{})

	if err := write(t, root, "win/ctl", "new 320x200"); err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := write(t, root, "win/1/ctl", "unmount"); err != nil {
			t.Fatalf("unmount %d: %v", i, err)
		}
	}

	// Writes on ctl report command failures as protocol errors.
	if err := write(t, root, "win/1/ctl", "mount fs /srv/tree"); err == nil || err.Error() != "not supported" {
		t.Fatalf("mount fs with path: %v", err)
	}
}

func TestDrawAndScreenOverWire(t *testing.T) {
	_, _, root := startService(t, wm.Options{})

	if err := write(t, root, "win/ctl", "new 32x32"); err != nil {
		t.Fatalf("new: %v", err)
	}

	// rect 0,0-4,4 in red: opcode 2, pad, five LE fields.
	command := make([]byte, 24)
	command[0] = 2
	for i, v := range []uint32{0, 0, 4, 4, 0xff0000ff} {
		binary.LittleEndian.PutUint32(command[4+4*i:], v)
	}

	drawFid, err := root.Walk("win", "1", "dev", "draw")
	if err != nil {
		t.Fatalf("walk draw: %v", err)
	}
	defer drawFid.Clunk()
	if err := drawFid.Open(plan9.OWRITE); err != nil {
		t.Fatalf("open draw: %v", err)
	}
	if _, err := drawFid.Write(command, 0); err != nil {
		t.Fatalf("draw write: %v", err)
	}

	screen, err := root.Walk("win", "1", "dev", "screen")
	if err != nil {
		t.Fatalf("walk screen: %v", err)
	}
	defer screen.Clunk()
	if err := screen.Open(plan9.OREAD); err != nil {
		t.Fatalf("open screen: %v", err)
	}
	pixel, err := screen.Read(4, 0)
	if err != nil {
		t.Fatalf("screen read: %v", err)
	}
	if len(pixel) != 4 || pixel[0] != 0xff || pixel[1] != 0x00 || pixel[2] != 0x00 || pixel[3] != 0xff {
		t.Fatalf("pixel = % x", pixel)
	}

	if got := read(t, root, "win/1/dev/draw"); !strings.HasPrefix(got, "refresh=1\n") {
		t.Fatalf("draw status = %q", got)
	}
}

func TestConsoleOverWire(t *testing.T) {
	_, _, root := startService(t, wm.Options{})

	if err := write(t, root, "win/ctl", "new 320x200"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := write(t, root, "win/1/dev/cons", "hello\nworld"); err != nil {
		t.Fatalf("cons write: %v", err)
	}
	got := read(t, root, "win/1/dev/cons")
	if !strings.HasPrefix(got, "hello\nworld\n") {
		t.Fatalf("cons = %q", got)
	}
}
