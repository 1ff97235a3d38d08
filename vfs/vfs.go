// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
)

// Errors returned by tree operations. The protocol layer sends these
// verbatim as error replies, so the strings are part of the wire
// contract.
var (
	// ErrNotFound reports a name that does not exist in a directory.
	ErrNotFound = errors.New("file not found")

	// ErrNotDir reports a walk or create through a non-directory.
	ErrNotDir = errors.New("not a directory")

	// ErrExists reports a create with a name already present.
	ErrExists = errors.New("file exists")

	// ErrRemoved reports an operation through a stale reference to a
	// node that has been removed from the tree.
	ErrRemoved = errors.New("node removed")

	// ErrBindCycle reports a bind chain that revisits a node.
	ErrBindCycle = errors.New("bind cycle")

	// ErrNotFile reports a read or write on a directory node.
	ErrNotFile = errors.New("is directory")
)

// ReadFunc produces up to count bytes of file content starting at
// offset. Returning a short (or empty) slice signals end of file.
type ReadFunc func(count int, offset int64) ([]byte, error)

// WriteFunc applies data written at offset. A nil WriteFunc makes the
// file read-only.
type WriteFunc func(data []byte, offset int64) error

// Content is the variant payload of a Node: *Dir, *File, or *Bind.
type Content interface {
	isContent()
}

// Dir holds insertion-ordered children with unique names.
type Dir struct {
	children []*Node
	byName   map[string]*Node
}

func (*Dir) isContent() {}

// File holds the synthetic I/O callbacks.
type File struct {
	// Read produces file content. Required.
	Read ReadFunc

	// Write applies writes. Nil for read-only files.
	Write WriteFunc
}

func (*File) isContent() {}

// Bind references another node. Resolution through a bind is
// transparent: walking onto it continues at Target.
type Bind struct {
	// Target is the node the bind resolves to.
	Target *Node
}

func (*Bind) isContent() {}

// Node is one entry in the tree. Nodes are created through Tree
// methods and remain owned by the tree until removed.
type Node struct {
	name    string
	qid     uint64
	version uint32
	parent  *Node
	removed bool
	content Content
}

// Name returns the node's name within its parent.
func (n *Node) Name() string { return n.name }

// Qid returns the node's stable unique identifier. Qids are never
// reused within a tree, even after removal.
func (n *Node) Qid() uint64 { return n.qid }

// Version returns the node's modification counter.
func (n *Node) Version() uint32 { return n.version }

// Touch increments the modification counter. The protocol layer calls
// it after successful writes.
func (n *Node) Touch() { n.version++ }

// Parent returns the containing directory, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Removed reports whether the node has been removed from the tree.
func (n *Node) Removed() bool { return n.removed }

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	_, ok := n.content.(*Dir)
	return ok
}

// File returns the node's file content, or nil if it is not a file.
func (n *Node) File() *File {
	f, _ := n.content.(*File)
	return f
}

// Bind returns the node's bind content, or nil if it is not a bind.
func (n *Node) Bind() *Bind {
	b, _ := n.content.(*Bind)
	return b
}

// Children returns the directory's children in insertion order. The
// returned slice is shared; callers must not modify it. Returns nil
// for non-directories.
func (n *Node) Children() []*Node {
	d, ok := n.content.(*Dir)
	if !ok {
		return nil
	}
	return d.children
}

// Child returns the named child of a directory, or ErrNotFound. Binds
// are returned as-is; use Tree.Walk for transparent resolution.
func (n *Node) Child(name string) (*Node, error) {
	if n.removed {
		return nil, ErrRemoved
	}
	d, ok := n.content.(*Dir)
	if !ok {
		return nil, ErrNotDir
	}
	child, ok := d.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	return child, nil
}

// Path returns the node's absolute path, for diagnostics.
func (n *Node) Path() string {
	if n.parent == nil {
		return "/"
	}
	prefix := n.parent.Path()
	if prefix == "/" {
		return "/" + n.name
	}
	return prefix + "/" + n.name
}

// Tree is a synthetic filesystem. The zero value is not usable; call
// New.
type Tree struct {
	root    *Node
	nextQid uint64
}

// New returns a tree containing only an empty root directory.
func New() *Tree {
	t := &Tree{}
	t.root = &Node{
		name:    "/",
		qid:     t.allocQid(),
		content: newDir(),
	}
	return t
}

// Root returns the root directory.
func (t *Tree) Root() *Node { return t.root }

func (t *Tree) allocQid() uint64 {
	q := t.nextQid
	t.nextQid++
	return q
}

func newDir() *Dir {
	return &Dir{byName: make(map[string]*Node)}
}

// attach links a freshly created node into parent, enforcing name
// uniqueness and parent liveness.
func (t *Tree) attach(parent *Node, node *Node) error {
	if parent == nil {
		return fmt.Errorf("nil parent for %q", node.name)
	}
	if parent.removed {
		return ErrRemoved
	}
	d, ok := parent.content.(*Dir)
	if !ok {
		return ErrNotDir
	}
	if node.name == "" || node.name == "." || node.name == ".." {
		return fmt.Errorf("invalid name %q", node.name)
	}
	if _, exists := d.byName[node.name]; exists {
		return ErrExists
	}
	node.parent = parent
	d.children = append(d.children, node)
	d.byName[node.name] = node
	return nil
}

// Mkdir creates an empty directory under parent.
func (t *Tree) Mkdir(parent *Node, name string) (*Node, error) {
	node := &Node{
		name:    name,
		qid:     t.allocQid(),
		content: newDir(),
	}
	if err := t.attach(parent, node); err != nil {
		return nil, err
	}
	return node, nil
}

// NewFile creates a synthetic file under parent. read is required;
// write may be nil for read-only files.
func (t *Tree) NewFile(parent *Node, name string, read ReadFunc, write WriteFunc) (*Node, error) {
	if read == nil {
		return nil, fmt.Errorf("file %q: nil read callback", name)
	}
	node := &Node{
		name:    name,
		qid:     t.allocQid(),
		content: &File{Read: read, Write: write},
	}
	if err := t.attach(parent, node); err != nil {
		return nil, err
	}
	return node, nil
}

// NewBind creates a bind under parent referencing target. The target
// must belong to the same tree and must not be removed.
func (t *Tree) NewBind(parent *Node, name string, target *Node) (*Node, error) {
	if target == nil {
		return nil, fmt.Errorf("bind %q: nil target", name)
	}
	if target.removed {
		return nil, ErrRemoved
	}
	node := &Node{
		name:    name,
		qid:     t.allocQid(),
		content: &Bind{Target: target},
	}
	if err := t.attach(parent, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Remove detaches node from its parent and marks the whole detached
// subtree removed. Stale references into the subtree fail all
// subsequent operations with ErrRemoved. The root cannot be removed.
func (t *Tree) Remove(node *Node) error {
	if node == nil {
		return fmt.Errorf("remove nil node")
	}
	if node.removed {
		return ErrRemoved
	}
	if node.parent == nil {
		return fmt.Errorf("cannot remove root")
	}

	d := node.parent.content.(*Dir)
	delete(d.byName, node.name)
	for i, child := range d.children {
		if child == node {
			d.children = append(d.children[:i], d.children[i+1:]...)
			break
		}
	}
	node.parent = nil

	markRemoved(node)
	return nil
}

// markRemoved marks node and every descendant removed. Binds are
// marked but their targets are not: a bind's target lives elsewhere
// in the tree and survives.
func markRemoved(node *Node) {
	node.removed = true
	if d, ok := node.content.(*Dir); ok {
		for _, child := range d.children {
			markRemoved(child)
		}
	}
}
