// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ninep

import (
	"net"
	"strings"
	"sync"
	"testing"

	"9fans.net/go/plan9"

	"github.com/bureau-foundation/casement/vfs"
)

// memoryFile builds a read/write file backed by a string variable.
func memoryFile(content *string) (vfs.ReadFunc, vfs.WriteFunc) {
	read := func(count int, offset int64) ([]byte, error) {
		s := *content
		if offset >= int64(len(s)) {
			return nil, nil
		}
		end := offset + int64(count)
		if end > int64(len(s)) {
			end = int64(len(s))
		}
		return []byte(s[offset:end]), nil
	}
	write := func(data []byte, offset int64) error {
		*content = string(data)
		return nil
	}
	return read, write
}

// testTree builds a small tree:
//
//	/
//	├── docs/{alpha,beta,gamma}   (read-only, insertion order)
//	└── note                      (read/write)
func testTree(t *testing.T) (*vfs.Tree, *string) {
	t.Helper()
	tree := vfs.New()

	docs, err := tree.Mkdir(tree.Root(), "docs")
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	for _, name := range []string{"alpha", "beta", "gamma"} {
		content := name + " content"
		read, _ := memoryFile(&content)
		if _, err := tree.NewFile(docs, name, read, nil); err != nil {
			t.Fatalf("NewFile %s: %v", name, err)
		}
	}

	note := "initial"
	read, write := memoryFile(&note)
	if _, err := tree.NewFile(tree.Root(), "note", read, write); err != nil {
		t.Fatalf("NewFile note: %v", err)
	}
	return tree, &note
}

// startSession runs a server session over net.Pipe and returns a
// negotiated, attached client plus the server's guard for tests that
// mutate the tree mid-session.
func startSession(t *testing.T, tree *vfs.Tree) (*Client, *Fid, *sync.Mutex) {
	t.Helper()

	guard := &sync.Mutex{}
	server := &Server{Tree: tree, Guard: guard}
	clientConn, serverConn := net.Pipe()

	go server.ServeConn(serverConn)
	t.Cleanup(func() { clientConn.Close() })

	client := NewClient(clientConn)
	if _, err := client.Version(MaxMsize); err != nil {
		t.Fatalf("Version: %v", err)
	}
	root, err := client.Attach("test", "")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return client, root, guard
}

func TestVersionClampsMsize(t *testing.T) {
	tree, _ := testTree(t)

	server := &Server{Tree: tree}
	clientConn, serverConn := net.Pipe()
	go server.ServeConn(serverConn)
	defer clientConn.Close()

	client := NewClient(clientConn)
	msize, err := client.Version(1 << 20)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if msize != MaxMsize {
		t.Fatalf("oversize request negotiated %d, want %d", msize, MaxMsize)
	}
}

func TestVersionRejectsUnknownProtocol(t *testing.T) {
	tree, _ := testTree(t)

	server := &Server{Tree: tree}
	clientConn, serverConn := net.Pipe()
	go server.ServeConn(serverConn)
	defer clientConn.Close()

	// Raw exchange: the client type only ever sends the real version.
	err := writeFcall(clientConn, &plan9.Fcall{
		Type: plan9.Tversion, Tag: 1, Msize: 8192, Version: "9P2000.u",
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	rx, err := readFcall(clientConn, MaxMsize)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rx.Type != plan9.Rerror || rx.Ename != "invalid Tversion" {
		t.Fatalf("got %v %q, want Rerror %q", rx.Type, rx.Ename, "invalid Tversion")
	}
}

func TestAuthNotRequired(t *testing.T) {
	tree, _ := testTree(t)

	server := &Server{Tree: tree}
	clientConn, serverConn := net.Pipe()
	go server.ServeConn(serverConn)
	defer clientConn.Close()

	client := NewClient(clientConn)
	if _, err := client.Version(MaxMsize); err != nil {
		t.Fatalf("Version: %v", err)
	}

	if err := writeFcall(clientConn, &plan9.Fcall{
		Type: plan9.Tauth, Tag: 99, Afid: 0, Uname: "test", Aname: "",
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rx, err := readFcall(clientConn, MaxMsize)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rx.Type != plan9.Rerror || rx.Ename != "authentication not required" {
		t.Fatalf("Tauth answered %v %q", rx.Type, rx.Ename)
	}
}

func TestRequestBeforeVersion(t *testing.T) {
	tree, _ := testTree(t)

	server := &Server{Tree: tree}
	clientConn, serverConn := net.Pipe()
	go server.ServeConn(serverConn)
	defer clientConn.Close()

	if err := writeFcall(clientConn, &plan9.Fcall{
		Type: plan9.Tattach, Tag: 1, Fid: 0, Afid: plan9.NOFID, Uname: "x", Aname: "",
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rx, err := readFcall(clientConn, MaxMsize)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rx.Type != plan9.Rerror || rx.Ename != "version not negotiated" {
		t.Fatalf("pre-version Tattach answered %v %q", rx.Type, rx.Ename)
	}
}

func TestWalkAndReadFile(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	fid, err := root.Walk("docs", "beta")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if err := fid.Open(plan9.OREAD); err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := fid.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "beta content" {
		t.Fatalf("read %q, want %q", data, "beta content")
	}
}

func TestWalkFirstElementFails(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	_, err := root.Walk("missing")
	if err == nil || err.Error() != "file not found" {
		t.Fatalf("walk to missing name: %v, want %q", err, "file not found")
	}
}

func TestWalkPartialLeavesFidUnbound(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	_, err := root.Walk("docs", "missing")
	if err == nil || !strings.Contains(err.Error(), "walk stopped after 1 of 2") {
		t.Fatalf("partial walk error = %v", err)
	}
}

func TestWalkLimit(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	names := make([]string, MaxWalkElements+1)
	for i := range names {
		names[i] = "docs"
	}
	_, err := root.Walk(names...)
	if err == nil || err.Error() != "walk limit exceeded" {
		t.Fatalf("oversized walk: %v, want %q", err, "walk limit exceeded")
	}
}

func TestWalkFromOpenFid(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	docs, err := root.Walk("docs")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if err := docs.Open(plan9.OREAD); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := docs.Walk("alpha"); err == nil || err.Error() != "cannot walk open fid" {
		t.Fatalf("walk from open fid: %v, want %q", err, "cannot walk open fid")
	}

	// The refused walk leaves the open fid usable.
	if _, err := docs.Dirread(); err != nil {
		t.Fatalf("Dirread after refused walk: %v", err)
	}
}

func TestWriteThenRead(t *testing.T) {
	tree, note := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	fid, err := root.Walk("note")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if err := fid.Open(plan9.ORDWR); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := fid.WriteString("updated"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if *note != "updated" {
		t.Fatalf("backing store = %q, want %q", *note, "updated")
	}
	data, err := fid.Read(64, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "updated" {
		t.Fatalf("read back %q", data)
	}
}

func TestOpenReadOnlyForWrite(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	fid, err := root.Walk("docs", "alpha")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if err := fid.Open(plan9.OWRITE); err == nil || err.Error() != "write error" {
		t.Fatalf("opening read-only file for write: %v, want %q", err, "write error")
	}
}

func TestDirReadInsertionOrder(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	fid, err := root.Walk("docs")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if err := fid.Open(plan9.OREAD); err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []string{"alpha", "beta", "gamma"}
	for pass := 0; pass < 2; pass++ {
		entries, err := fid.Dirread()
		if err != nil {
			t.Fatalf("Dirread pass %d: %v", pass, err)
		}
		if len(entries) != len(want) {
			t.Fatalf("pass %d: %d entries, want %d", pass, len(entries), len(want))
		}
		for i, entry := range entries {
			if entry.Name != want[i] {
				t.Errorf("pass %d entry %d = %q, want %q", pass, i, entry.Name, want[i])
			}
		}
	}
}

func TestDirReadBadOffset(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	fid, err := root.Walk("docs")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if err := fid.Open(plan9.OREAD); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := fid.Read(4096, 0); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := fid.Read(4096, 3); err == nil || err.Error() != "read error" {
		t.Fatalf("directory read at arbitrary offset: %v, want %q", err, "read error")
	}
}

func TestClunkReleasesFid(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	fid, err := root.Walk("note")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if err := fid.Clunk(); err != nil {
		t.Fatalf("Clunk: %v", err)
	}
	if _, err := fid.Read(16, 0); err == nil || err.Error() != "fid not found" {
		t.Fatalf("read through clunked fid: %v, want %q", err, "fid not found")
	}
}

func TestStaleFidAfterRemove(t *testing.T) {
	tree, _ := testTree(t)
	client, root, guard := startSession(t, tree)
	defer client.Close()

	fid, err := root.Walk("note")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if err := fid.Open(plan9.OREAD); err != nil {
		t.Fatalf("Open: %v", err)
	}

	guard.Lock()
	node, err := tree.Walk(tree.Root(), "note")
	if err == nil {
		err = tree.Remove(node)
	}
	guard.Unlock()
	if err != nil {
		t.Fatalf("removing note: %v", err)
	}

	if _, err := fid.Read(16, 0); err == nil || err.Error() != "node removed" {
		t.Fatalf("read through stale fid: %v, want %q", err, "node removed")
	}
	// Clunk still works on a stale fid.
	if err := fid.Clunk(); err != nil {
		t.Fatalf("Clunk after removal: %v", err)
	}
}

func TestUnsupportedMessages(t *testing.T) {
	tree, _ := testTree(t)

	server := &Server{Tree: tree}
	clientConn, serverConn := net.Pipe()
	go server.ServeConn(serverConn)
	defer clientConn.Close()

	client := NewClient(clientConn)
	if _, err := client.Version(MaxMsize); err != nil {
		t.Fatalf("Version: %v", err)
	}
	if _, err := client.Attach("test", ""); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	if err := writeFcall(clientConn, &plan9.Fcall{
		Type: plan9.Tremove, Tag: 77, Fid: 0,
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rx, err := readFcall(clientConn, MaxMsize)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if rx.Type != plan9.Rerror || rx.Ename != "not supported" {
		t.Fatalf("Tremove answered %v %q", rx.Type, rx.Ename)
	}
}

func TestStatFile(t *testing.T) {
	tree, _ := testTree(t)
	client, root, _ := startSession(t, tree)
	defer client.Close()

	fid, err := root.Walk("docs", "alpha")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	dir, err := fid.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if dir.Name != "alpha" {
		t.Fatalf("stat name = %q", dir.Name)
	}
	if dir.Mode&plan9.DMDIR != 0 {
		t.Fatal("file stat has DMDIR set")
	}
}
