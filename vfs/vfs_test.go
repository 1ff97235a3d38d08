// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"testing"
)

// staticFile returns a ReadFunc serving fixed content.
func staticFile(content string) ReadFunc {
	return func(count int, offset int64) ([]byte, error) {
		if offset >= int64(len(content)) {
			return nil, nil
		}
		data := []byte(content)[offset:]
		if len(data) > count {
			data = data[:count]
		}
		return data, nil
	}
}

func TestMkdirAndWalk(t *testing.T) {
	tree := New()
	win, err := tree.Mkdir(tree.Root(), "win")
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	got, err := tree.Walk(tree.Root(), "win")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if got != win {
		t.Fatalf("Walk returned %v, want the created directory", got)
	}
	if !got.IsDir() {
		t.Fatal("created node is not a directory")
	}
}

func TestWalkDotAndDotDot(t *testing.T) {
	tree := New()
	win, _ := tree.Mkdir(tree.Root(), "win")

	if got, err := tree.Walk(win, "."); err != nil || got != win {
		t.Fatalf("Walk(.) = %v, %v; want the node itself", got, err)
	}
	if got, err := tree.Walk(win, ".."); err != nil || got != tree.Root() {
		t.Fatalf("Walk(..) = %v, %v; want root", got, err)
	}
	// The root is its own parent.
	if got, err := tree.Walk(tree.Root(), ".."); err != nil || got != tree.Root() {
		t.Fatalf("Walk(root, ..) = %v, %v; want root", got, err)
	}
}

func TestWalkMissingName(t *testing.T) {
	tree := New()
	_, err := tree.Walk(tree.Root(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Walk missing = %v, want ErrNotFound", err)
	}
}

func TestWalkThroughFileFails(t *testing.T) {
	tree := New()
	file, _ := tree.NewFile(tree.Root(), "ctl", staticFile("x"), nil)
	_, err := tree.Walk(file, "child")
	if !errors.Is(err, ErrNotDir) {
		t.Fatalf("Walk through file = %v, want ErrNotDir", err)
	}
}

func TestChildrenInsertionOrder(t *testing.T) {
	tree := New()
	names := []string{"zeta", "alpha", "mid", "beta"}
	for _, name := range names {
		if _, err := tree.Mkdir(tree.Root(), name); err != nil {
			t.Fatalf("Mkdir %s: %v", name, err)
		}
	}

	// Listing must be insertion order, not sorted, and stable across
	// repeated calls.
	for pass := 0; pass < 3; pass++ {
		children := tree.Root().Children()
		if len(children) != len(names) {
			t.Fatalf("pass %d: %d children, want %d", pass, len(children), len(names))
		}
		for i, child := range children {
			if child.Name() != names[i] {
				t.Errorf("pass %d: child[%d] = %s, want %s", pass, i, child.Name(), names[i])
			}
		}
	}
}

func TestDuplicateNameRejected(t *testing.T) {
	tree := New()
	if _, err := tree.Mkdir(tree.Root(), "win"); err != nil {
		t.Fatalf("first Mkdir: %v", err)
	}
	if _, err := tree.Mkdir(tree.Root(), "win"); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate Mkdir = %v, want ErrExists", err)
	}
	if _, err := tree.NewFile(tree.Root(), "win", staticFile(""), nil); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate NewFile = %v, want ErrExists", err)
	}
}

func TestInvalidNames(t *testing.T) {
	tree := New()
	for _, name := range []string{"", ".", ".."} {
		if _, err := tree.Mkdir(tree.Root(), name); err == nil {
			t.Errorf("Mkdir(%q) succeeded, want error", name)
		}
	}
}

func TestFileCallbacks(t *testing.T) {
	tree := New()
	var stored string
	file, err := tree.NewFile(tree.Root(), "title",
		func(count int, offset int64) ([]byte, error) {
			return staticFile(stored)(count, offset)
		},
		func(data []byte, offset int64) error {
			if offset != 0 {
				return fmt.Errorf("write at offset %d", offset)
			}
			stored = string(data)
			return nil
		})
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	f := file.File()
	if f == nil {
		t.Fatal("File() returned nil for a file node")
	}
	if err := f.Write([]byte("Demo"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := f.Read(64, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "Demo" {
		t.Fatalf("read %q, want %q", data, "Demo")
	}

	// Offset past content yields EOF (empty slice).
	data, err = f.Read(64, 100)
	if err != nil || len(data) != 0 {
		t.Fatalf("read past end = %q, %v; want empty", data, err)
	}
}

func TestReadOnlyFileHasNilWrite(t *testing.T) {
	tree := New()
	file, _ := tree.NewFile(tree.Root(), "type", staticFile("button"), nil)
	if file.File().Write != nil {
		t.Fatal("read-only file has a write callback")
	}
}

func TestNewFileRequiresRead(t *testing.T) {
	tree := New()
	if _, err := tree.NewFile(tree.Root(), "bad", nil, nil); err == nil {
		t.Fatal("NewFile with nil read succeeded")
	}
}

func TestBindResolvesTransparently(t *testing.T) {
	tree := New()
	win, _ := tree.Mkdir(tree.Root(), "win")
	ctl, _ := tree.NewFile(win, "ctl", staticFile(""), nil)
	mnt, _ := tree.Mkdir(tree.Root(), "mnt")

	if _, err := tree.NewBind(mnt, "ctl", ctl); err != nil {
		t.Fatalf("NewBind: %v", err)
	}

	got, err := tree.Walk(mnt, "ctl")
	if err != nil {
		t.Fatalf("Walk through bind: %v", err)
	}
	if got != ctl {
		t.Fatalf("bind resolved to %v, want the target file", got)
	}
}

func TestBindChain(t *testing.T) {
	tree := New()
	target, _ := tree.Mkdir(tree.Root(), "target")
	a, _ := tree.NewBind(tree.Root(), "a", target)
	if _, err := tree.NewBind(tree.Root(), "b", a); err != nil {
		t.Fatalf("NewBind to bind: %v", err)
	}

	got, err := tree.Walk(tree.Root(), "b")
	if err != nil {
		t.Fatalf("Walk chain: %v", err)
	}
	if got != target {
		t.Fatalf("chain resolved to %v, want final target", got)
	}
}

func TestBindCycleDetected(t *testing.T) {
	tree := New()
	anchor, _ := tree.Mkdir(tree.Root(), "anchor")
	a, _ := tree.NewBind(tree.Root(), "a", anchor)
	b, _ := tree.NewBind(tree.Root(), "b", a)

	// Retarget a onto b, forming a loop.
	a.Bind().Target = b

	_, err := tree.Walk(tree.Root(), "a")
	if !errors.Is(err, ErrBindCycle) {
		t.Fatalf("Walk cycle = %v, want ErrBindCycle", err)
	}
}

func TestSelfBindCycleDetected(t *testing.T) {
	tree := New()
	anchor, _ := tree.Mkdir(tree.Root(), "anchor")
	a, _ := tree.NewBind(tree.Root(), "a", anchor)
	a.Bind().Target = a

	_, err := tree.Walk(tree.Root(), "a")
	if !errors.Is(err, ErrBindCycle) {
		t.Fatalf("self cycle = %v, want ErrBindCycle", err)
	}
}

func TestRemoveDetachesAndPoisons(t *testing.T) {
	tree := New()
	win, _ := tree.Mkdir(tree.Root(), "win")
	one, _ := tree.Mkdir(win, "1")
	title, _ := tree.NewFile(one, "title", staticFile("Demo"), nil)

	if err := tree.Remove(one); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// Detached from the parent listing.
	if len(win.Children()) != 0 {
		t.Fatalf("parent still lists %d children", len(win.Children()))
	}
	if _, err := tree.Walk(win, "1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Walk removed = %v, want ErrNotFound", err)
	}

	// Stale references observe removal, all the way down.
	if !one.Removed() || !title.Removed() {
		t.Fatal("subtree not marked removed")
	}
	if _, err := one.Child("title"); !errors.Is(err, ErrRemoved) {
		t.Fatalf("Child on removed = %v, want ErrRemoved", err)
	}
	if _, err := tree.Walk(one, "title"); !errors.Is(err, ErrRemoved) {
		t.Fatalf("Walk from removed = %v, want ErrRemoved", err)
	}
}

func TestRemoveTwiceFails(t *testing.T) {
	tree := New()
	win, _ := tree.Mkdir(tree.Root(), "win")
	if err := tree.Remove(win); err != nil {
		t.Fatalf("first Remove: %v", err)
	}
	if err := tree.Remove(win); !errors.Is(err, ErrRemoved) {
		t.Fatalf("second Remove = %v, want ErrRemoved", err)
	}
}

func TestRemoveRootFails(t *testing.T) {
	tree := New()
	if err := tree.Remove(tree.Root()); err == nil {
		t.Fatal("Remove(root) succeeded")
	}
}

func TestBindToRemovedTargetFails(t *testing.T) {
	tree := New()
	win, _ := tree.Mkdir(tree.Root(), "win")
	tree.Remove(win)
	if _, err := tree.NewBind(tree.Root(), "b", win); !errors.Is(err, ErrRemoved) {
		t.Fatalf("bind to removed = %v, want ErrRemoved", err)
	}
}

func TestWalkOntoRemovedBindTargetFails(t *testing.T) {
	tree := New()
	win, _ := tree.Mkdir(tree.Root(), "win")
	tree.NewBind(tree.Root(), "b", win)
	tree.Remove(win)

	if _, err := tree.Walk(tree.Root(), "b"); !errors.Is(err, ErrRemoved) {
		t.Fatalf("walk onto removed target = %v, want ErrRemoved", err)
	}
}

func TestQidsNeverReused(t *testing.T) {
	tree := New()
	first, _ := tree.Mkdir(tree.Root(), "1")
	firstQid := first.Qid()
	tree.Remove(first)

	second, _ := tree.Mkdir(tree.Root(), "1")
	if second.Qid() == firstQid {
		t.Fatalf("qid %d reused after removal", firstQid)
	}
}

func TestResolvePath(t *testing.T) {
	tree := New()
	win, _ := tree.Mkdir(tree.Root(), "win")
	one, _ := tree.Mkdir(win, "1")
	title, _ := tree.NewFile(one, "title", staticFile("Demo"), nil)

	for _, path := range []string{"/win/1/title", "win/1/title", "//win//1//title"} {
		got, err := tree.Resolve(path)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", path, err)
		}
		if got != title {
			t.Fatalf("Resolve(%q) = %v, want title file", path, got)
		}
	}

	if got, err := tree.Resolve("/"); err != nil || got != tree.Root() {
		t.Fatalf("Resolve(/) = %v, %v; want root", got, err)
	}
}

func TestPathDiagnostics(t *testing.T) {
	tree := New()
	win, _ := tree.Mkdir(tree.Root(), "win")
	one, _ := tree.Mkdir(win, "1")

	if got := tree.Root().Path(); got != "/" {
		t.Errorf("root Path = %q, want /", got)
	}
	if got := one.Path(); got != "/win/1" {
		t.Errorf("Path = %q, want /win/1", got)
	}
}

func TestTouchBumpsVersion(t *testing.T) {
	tree := New()
	file, _ := tree.NewFile(tree.Root(), "rect", staticFile(""), nil)
	before := file.Version()
	file.Touch()
	if file.Version() != before+1 {
		t.Fatalf("Version after Touch = %d, want %d", file.Version(), before+1)
	}
}
