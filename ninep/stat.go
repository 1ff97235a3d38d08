// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ninep

import (
	"fmt"

	"9fans.net/go/plan9"

	"github.com/bureau-foundation/casement/vfs"
)

// ownerName is reported as uid, gid, and muid of every synthetic node.
const ownerName = "casement"

// nodeQid builds the protocol qid for a node.
func nodeQid(node *vfs.Node) plan9.Qid {
	qid := plan9.Qid{
		Path: node.Qid(),
		Vers: node.Version(),
	}
	if node.IsDir() {
		qid.Type = plan9.QTDIR
	}
	return qid
}

// nodeMode builds the permission word for a node. Directories are
// listable, files writable exactly when they carry a write callback.
func nodeMode(node *vfs.Node) plan9.Perm {
	if node.IsDir() {
		return plan9.Perm(plan9.DMDIR | 0o555)
	}
	if f := node.File(); f != nil && f.Write != nil {
		return plan9.Perm(0o644)
	}
	return plan9.Perm(0o444)
}

// nodeDir builds the stat record for a node, reported under the given
// name (a bind is listed under its own name but with its target's
// identity). Synthetic files report length 0; readers read to EOF.
func nodeDir(node *vfs.Node, name string, when uint32) *plan9.Dir {
	return &plan9.Dir{
		Qid:   nodeQid(node),
		Mode:  nodeMode(node),
		Atime: when,
		Mtime: when,
		Name:  name,
		Uid:   ownerName,
		Gid:   ownerName,
		Muid:  ownerName,
	}
}

// statBytes encodes a stat record for Rstat or directory reads.
func statBytes(node *vfs.Node, name string, when uint32) ([]byte, error) {
	data, err := nodeDir(node, name, when).Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding stat for %q: %w", name, err)
	}
	return data, nil
}

// listDir encodes the directory's children as consecutive stat
// records, in insertion order. Binds are listed under their own name
// with the resolved target's identity; a bind whose target cannot be
// resolved (removed, or a cycle) is omitted rather than poisoning the
// whole listing.
func (s *session) listDir(dir *vfs.Node) ([][]byte, error) {
	var entries [][]byte
	for _, child := range dir.Children() {
		target := child
		if child.Bind() != nil {
			resolved, err := s.server.Tree.Walk(dir, child.Name())
			if err != nil {
				continue
			}
			target = resolved
		}
		entry, err := statBytes(target, child.Name(), s.server.started)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
