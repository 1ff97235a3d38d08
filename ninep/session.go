// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ninep

import (
	"log/slog"
	"net"
	"time"

	"9fans.net/go/plan9"

	"github.com/bureau-foundation/casement/lib/metrics"
	"github.com/bureau-foundation/casement/vfs"
)

// fidEntry is the server-side state of one fid: the node it names,
// its open state, and the cursors that make sequential reads work.
type fidEntry struct {
	node *vfs.Node
	open bool

	// mode is the base open mode (OREAD, OWRITE, ORDWR) once open.
	mode uint8

	// cursor tracks the byte position after the last read or write,
	// for diagnostics and streaming callers.
	cursor int64

	// Directory streaming state: the entry snapshot taken at offset 0
	// and the only offset the next read may use. Stat records never
	// split across reads.
	dirEntries    [][]byte
	dirIndex      int
	dirNextOffset uint64
}

// session handles one client connection: a strict request/response
// loop over the negotiated message size, with a private fid table.
type session struct {
	server *Server
	conn   net.Conn
	logger *slog.Logger

	msize     uint32
	versioned bool
	attached  bool
	fids      map[uint32]*fidEntry
}

func newSession(server *Server, conn net.Conn, logger *slog.Logger) *session {
	return &session{
		server: server,
		conn:   conn,
		logger: logger,
		msize:  MaxMsize,
		fids:   make(map[uint32]*fidEntry),
	}
}

// run processes requests until the connection fails or the context
// ends (the server closes the connection from outside). Transport
// and framing errors are fatal; per-request errors become Rerror.
func (s *session) run() {
	defer s.conn.Close()

	for {
		if s.server.IdleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.server.IdleTimeout))
		}

		tx, err := readFcall(s.conn, s.msize)
		if err != nil {
			s.logger.Debug("session ended", "reason", err)
			return
		}

		metrics.RecordRequest(messageTypeName(tx.Type))

		s.server.lock()
		rx := s.handle(tx)
		s.server.unlock()

		rx.Tag = tx.Tag
		if err := writeFcall(s.conn, rx); err != nil {
			s.logger.Debug("session write failed", "error", err)
			return
		}
	}
}

// handle dispatches one request. Every handler returns a reply or an
// error; errors become Rerror and the session continues.
func (s *session) handle(tx *plan9.Fcall) *plan9.Fcall {
	var (
		rx  *plan9.Fcall
		err error
	)

	if tx.Type != plan9.Tversion && !s.versioned {
		return rerror(ErrNoVersion)
	}

	switch tx.Type {
	case plan9.Tversion:
		rx, err = s.tversion(tx)
	case plan9.Tauth:
		err = ErrNoAuth
	case plan9.Tattach:
		rx, err = s.tattach(tx)
	case plan9.Tflush:
		rx = &plan9.Fcall{Type: plan9.Rflush}
	case plan9.Twalk:
		rx, err = s.twalk(tx)
	case plan9.Topen:
		rx, err = s.topen(tx)
	case plan9.Tread:
		rx, err = s.tread(tx)
	case plan9.Twrite:
		rx, err = s.twrite(tx)
	case plan9.Tclunk:
		rx, err = s.tclunk(tx)
	case plan9.Tstat:
		rx, err = s.tstat(tx)
	case plan9.Tcreate, plan9.Tremove, plan9.Twstat:
		err = ErrNotSupported
	default:
		err = ErrNotSupported
	}

	if err != nil {
		return rerror(err)
	}
	return rx
}

func rerror(err error) *plan9.Fcall {
	metrics.RecordProtocolError()
	return &plan9.Fcall{Type: plan9.Rerror, Ename: err.Error()}
}

// tversion negotiates the protocol. Any version string other than
// "9P2000" is refused. Negotiation resets the session: all fids are
// forgotten.
func (s *session) tversion(tx *plan9.Fcall) (*plan9.Fcall, error) {
	if tx.Version != Version {
		return nil, ErrBadVersion
	}
	s.msize = clampMsize(tx.Msize)
	s.versioned = true
	s.attached = false
	s.fids = make(map[uint32]*fidEntry)
	return &plan9.Fcall{
		Type:    plan9.Rversion,
		Msize:   s.msize,
		Version: Version,
	}, nil
}

// tattach binds a fid to the tree root. The authentication fid is
// ignored (authentication is a no-op exchange).
func (s *session) tattach(tx *plan9.Fcall) (*plan9.Fcall, error) {
	if _, exists := s.fids[tx.Fid]; exists {
		return nil, ErrFidInUse
	}
	root := s.server.Tree.Root()
	s.fids[tx.Fid] = &fidEntry{node: root}
	s.attached = true
	s.logger.Debug("client attached", "aname", tx.Aname, "uname", tx.Uname)
	return &plan9.Fcall{Type: plan9.Rattach, Qid: nodeQid(root)}, nil
}

// twalk resolves up to MaxWalkElements path elements with partial-walk
// semantics: a failure on the first element is an error; a failure on
// a later element returns the shorter qid list and moves nothing. An
// open fid cannot be the walk source.
func (s *session) twalk(tx *plan9.Fcall) (*plan9.Fcall, error) {
	entry, ok := s.fids[tx.Fid]
	if !ok {
		return nil, ErrFidNotFound
	}
	if entry.open {
		return nil, ErrWalkOpenFid
	}
	if tx.Newfid != tx.Fid {
		if _, exists := s.fids[tx.Newfid]; exists {
			return nil, ErrNewfidInUse
		}
	}
	if len(tx.Wname) > MaxWalkElements {
		return nil, ErrWalkLimit
	}

	node := entry.node
	wqid := make([]plan9.Qid, 0, len(tx.Wname))
	for i, name := range tx.Wname {
		next, err := s.server.Tree.Walk(node, name)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			break
		}
		node = next
		wqid = append(wqid, nodeQid(node))
	}

	// Only a complete walk binds the destination fid.
	if len(wqid) == len(tx.Wname) {
		s.fids[tx.Newfid] = &fidEntry{node: node}
	}
	return &plan9.Fcall{Type: plan9.Rwalk, Wqid: wqid}, nil
}

// topen validates the open mode against what the node supports.
// OTRUNC is accepted as a no-op on writable files; OEXEC and ORCLOSE
// have no meaning here and are refused.
func (s *session) topen(tx *plan9.Fcall) (*plan9.Fcall, error) {
	entry, ok := s.fids[tx.Fid]
	if !ok {
		return nil, ErrFidNotFound
	}
	if entry.open {
		return nil, ErrFidInUse
	}
	if entry.node.Removed() {
		return nil, vfs.ErrRemoved
	}

	if tx.Mode&plan9.ORCLOSE != 0 {
		return nil, ErrNotSupported
	}
	base := tx.Mode & 3
	if base == plan9.OEXEC {
		return nil, ErrNotSupported
	}

	if entry.node.IsDir() {
		if base != plan9.OREAD {
			return nil, ErrIsDirectory
		}
	} else {
		f := entry.node.File()
		wantsWrite := base == plan9.OWRITE || base == plan9.ORDWR || tx.Mode&plan9.OTRUNC != 0
		if wantsWrite && f.Write == nil {
			return nil, ErrWriteError
		}
	}

	entry.open = true
	entry.mode = base
	entry.cursor = 0
	return &plan9.Fcall{
		Type:   plan9.Ropen,
		Qid:    nodeQid(entry.node),
		Iounit: s.msize - IOHeaderSize,
	}, nil
}

// tread serves file reads through the node's callback and directory
// reads from an insertion-ordered stat snapshot. Directory reads are
// sequential: offset 0 takes a fresh snapshot, and each later read
// must start exactly where the previous one ended.
func (s *session) tread(tx *plan9.Fcall) (*plan9.Fcall, error) {
	entry, ok := s.fids[tx.Fid]
	if !ok {
		return nil, ErrFidNotFound
	}
	if !entry.open || entry.mode == plan9.OWRITE {
		return nil, ErrReadError
	}
	if entry.node.Removed() {
		return nil, vfs.ErrRemoved
	}

	count := clampCount(tx.Count, s.msize)

	if entry.node.IsDir() {
		return s.readDir(entry, tx.Offset, count)
	}

	data, err := entry.node.File().Read(int(count), int64(tx.Offset))
	if err != nil {
		return nil, err
	}
	entry.cursor = int64(tx.Offset) + int64(len(data))
	return &plan9.Fcall{Type: plan9.Rread, Data: data}, nil
}

// readDir packs as many whole stat records as fit in count.
func (s *session) readDir(entry *fidEntry, offset uint64, count uint32) (*plan9.Fcall, error) {
	if offset == 0 {
		entries, err := s.listDir(entry.node)
		if err != nil {
			return nil, err
		}
		entry.dirEntries = entries
		entry.dirIndex = 0
		entry.dirNextOffset = 0
	} else if offset != entry.dirNextOffset {
		return nil, ErrReadError
	}

	var data []byte
	for entry.dirIndex < len(entry.dirEntries) {
		record := entry.dirEntries[entry.dirIndex]
		if len(data)+len(record) > int(count) {
			break
		}
		data = append(data, record...)
		entry.dirIndex++
	}
	entry.dirNextOffset = offset + uint64(len(data))
	entry.cursor = int64(entry.dirNextOffset)
	return &plan9.Fcall{Type: plan9.Rread, Data: data}, nil
}

// twrite applies a write through the node's callback. The callback
// sees the wire offset; property files enforce their own offset
// rules.
func (s *session) twrite(tx *plan9.Fcall) (*plan9.Fcall, error) {
	entry, ok := s.fids[tx.Fid]
	if !ok {
		return nil, ErrFidNotFound
	}
	if !entry.open || entry.mode == plan9.OREAD {
		return nil, ErrWriteError
	}
	if entry.node.Removed() {
		return nil, vfs.ErrRemoved
	}
	if entry.node.IsDir() {
		return nil, ErrIsDirectory
	}
	if uint32(len(tx.Data)) > s.msize-IOHeaderSize {
		return nil, ErrWriteError
	}

	f := entry.node.File()
	if f.Write == nil {
		return nil, ErrWriteError
	}
	if err := f.Write(tx.Data, int64(tx.Offset)); err != nil {
		return nil, err
	}
	entry.node.Touch()
	entry.cursor = int64(tx.Offset) + int64(len(tx.Data))
	return &plan9.Fcall{Type: plan9.Rwrite, Count: uint32(len(tx.Data))}, nil
}

// tclunk releases the fid unconditionally, stale nodes included. The
// fid number becomes free for the client to rebind.
func (s *session) tclunk(tx *plan9.Fcall) (*plan9.Fcall, error) {
	if _, ok := s.fids[tx.Fid]; !ok {
		return nil, ErrFidNotFound
	}
	delete(s.fids, tx.Fid)
	return &plan9.Fcall{Type: plan9.Rclunk}, nil
}

// tstat reports the node's stat record. Open is not required.
func (s *session) tstat(tx *plan9.Fcall) (*plan9.Fcall, error) {
	entry, ok := s.fids[tx.Fid]
	if !ok {
		return nil, ErrFidNotFound
	}
	if entry.node.Removed() {
		return nil, vfs.ErrRemoved
	}

	name := entry.node.Name()
	data, err := statBytes(entry.node, name, s.server.started)
	if err != nil {
		return nil, err
	}
	return &plan9.Fcall{Type: plan9.Rstat, Stat: data}, nil
}
