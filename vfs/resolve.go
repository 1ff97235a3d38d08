// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "strings"

// Walk resolves a single path element relative to start. Binds are
// followed transparently, so the result is always a directory or a
// file. ".." steps to the parent; the root is its own parent.
func (t *Tree) Walk(start *Node, name string) (*Node, error) {
	if start == nil {
		return nil, ErrNotFound
	}
	if start.removed {
		return nil, ErrRemoved
	}

	if name == "." || name == "" {
		return start, nil
	}
	if name == ".." {
		if start.parent == nil {
			return start, nil
		}
		return start.parent, nil
	}

	child, err := start.Child(name)
	if err != nil {
		return nil, err
	}
	return t.followBinds(child)
}

// Resolve walks a slash-separated path from the root. Empty elements
// are ignored, so "/win/1/title" and "win/1/title" are equivalent.
// Used by scene bootstrap and tests; the protocol layer walks one
// element at a time through Walk.
func (t *Tree) Resolve(path string) (*Node, error) {
	node := t.root
	for _, element := range strings.Split(path, "/") {
		if element == "" {
			continue
		}
		next, err := t.Walk(node, element)
		if err != nil {
			return nil, err
		}
		node = next
	}
	return node, nil
}

// followBinds resolves a bind chain to its final target. A visited
// set bounds the chase: revisiting any node reports ErrBindCycle
// rather than looping.
func (t *Tree) followBinds(node *Node) (*Node, error) {
	var visited map[*Node]bool
	for {
		if node.removed {
			return nil, ErrRemoved
		}
		b := node.Bind()
		if b == nil {
			return node, nil
		}
		if visited == nil {
			visited = make(map[*Node]bool)
		}
		if visited[node] {
			return nil, ErrBindCycle
		}
		visited[node] = true
		node = b.Target
	}
}
