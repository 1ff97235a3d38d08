// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ninep

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"9fans.net/go/plan9"
)

// Client speaks 9P2000 to a server over a byte stream. It issues one
// request at a time (the service never pipelines) and hands out Fid
// handles for walked files.
//
// Fid and tag numbers increase monotonically and are never reused,
// even after clunk, so a stale handle can never alias a live one.
type Client struct {
	conn io.ReadWriteCloser

	mu      sync.Mutex
	msize   uint32
	nextTag uint16
	nextFid uint32
	closed  bool
}

// Dial connects to a server and negotiates the protocol.
func Dial(network, address string) (*Client, error) {
	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	client := NewClient(conn)
	if _, err := client.Version(MaxMsize); err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

// NewClient wraps an established connection. Callers must negotiate
// with Version before anything else.
func NewClient(conn io.ReadWriteCloser) *Client {
	return &Client{
		conn:  conn,
		msize: MaxMsize,
	}
}

// Close closes the underlying connection. Outstanding fids die with
// it.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// rpc sends one request and waits for its reply. Rerror replies come
// back as errors carrying the server's message.
func (c *Client) rpc(tx *plan9.Fcall) (*plan9.Fcall, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrSessionClosed
	}

	c.nextTag++
	if c.nextTag == plan9.NOTAG {
		c.nextTag = 1
	}
	tx.Tag = c.nextTag

	if err := writeFcall(c.conn, tx); err != nil {
		return nil, err
	}
	rx, err := readFcall(c.conn, c.msize)
	if err != nil {
		return nil, err
	}
	if rx.Tag != tx.Tag {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrTagMismatch, tx.Tag, rx.Tag)
	}
	if rx.Type == plan9.Rerror {
		return nil, fmt.Errorf("%s", rx.Ename)
	}
	if rx.Type != tx.Type+1 {
		return nil, fmt.Errorf("%w: %s for %s",
			ErrUnexpectedType, messageTypeName(rx.Type), messageTypeName(tx.Type))
	}
	return rx, nil
}

func (c *Client) allocFid() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	fid := c.nextFid
	c.nextFid++
	return fid
}

// Version negotiates the protocol and message size. The server clamps
// the requested msize; the clamped value is returned and used for all
// subsequent framing.
func (c *Client) Version(msize uint32) (uint32, error) {
	rx, err := c.rpc(&plan9.Fcall{
		Type:    plan9.Tversion,
		Msize:   msize,
		Version: Version,
	})
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.msize = rx.Msize
	c.mu.Unlock()
	return rx.Msize, nil
}

// Attach binds a new fid to the server's root and returns its handle.
// aname selects the attach point by convention; the service exposes a
// single tree and records the name for diagnostics only.
func (c *Client) Attach(uname, aname string) (*Fid, error) {
	fid := c.allocFid()
	rx, err := c.rpc(&plan9.Fcall{
		Type:  plan9.Tattach,
		Fid:   fid,
		Afid:  plan9.NOFID,
		Uname: uname,
		Aname: aname,
	})
	if err != nil {
		return nil, err
	}
	return &Fid{client: c, num: fid, qid: rx.Qid}, nil
}

// Fid is a client-side handle on one server file or directory.
type Fid struct {
	client *Client
	num    uint32
	qid    plan9.Qid
	open   bool
	iounit uint32
}

// Qid returns the server's identity for the file this fid names.
func (f *Fid) Qid() plan9.Qid { return f.qid }

// IsDir reports whether the fid names a directory.
func (f *Fid) IsDir() bool { return f.qid.Type&plan9.QTDIR != 0 }

// Walk resolves path elements relative to this fid, returning a new
// fid for the destination. The source fid is unchanged. A walk the
// server answers with fewer qids than requested stops at the failing
// element and returns an error.
func (f *Fid) Walk(names ...string) (*Fid, error) {
	newfid := f.client.allocFid()
	rx, err := f.client.rpc(&plan9.Fcall{
		Type:   plan9.Twalk,
		Fid:    f.num,
		Newfid: newfid,
		Wname:  names,
	})
	if err != nil {
		return nil, err
	}
	if len(rx.Wqid) != len(names) {
		return nil, fmt.Errorf("walk stopped after %d of %d elements: %s",
			len(rx.Wqid), len(names), names[len(rx.Wqid)])
	}

	qid := f.qid
	if len(rx.Wqid) > 0 {
		qid = rx.Wqid[len(rx.Wqid)-1]
	}
	return &Fid{client: f.client, num: newfid, qid: qid}, nil
}

// Open prepares the fid for I/O with a plan9 open mode (OREAD,
// OWRITE, ORDWR).
func (f *Fid) Open(mode uint8) error {
	rx, err := f.client.rpc(&plan9.Fcall{
		Type: plan9.Topen,
		Fid:  f.num,
		Mode: mode,
	})
	if err != nil {
		return err
	}
	f.open = true
	f.qid = rx.Qid
	f.iounit = rx.Iounit
	return nil
}

// Read returns up to count bytes at offset. An empty result means end
// of file.
func (f *Fid) Read(count uint32, offset uint64) ([]byte, error) {
	rx, err := f.client.rpc(&plan9.Fcall{
		Type:   plan9.Tread,
		Fid:    f.num,
		Offset: offset,
		Count:  count,
	})
	if err != nil {
		return nil, err
	}
	return rx.Data, nil
}

// ReadAll reads sequentially from offset 0 until end of file.
func (f *Fid) ReadAll() ([]byte, error) {
	chunk := f.iounit
	if chunk == 0 {
		chunk = MaxMsize - IOHeaderSize
	}

	var all []byte
	for {
		data, err := f.Read(chunk, uint64(len(all)))
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return all, nil
		}
		all = append(all, data...)
	}
}

// Write writes data at offset and returns the count the server
// accepted.
func (f *Fid) Write(data []byte, offset uint64) (uint32, error) {
	rx, err := f.client.rpc(&plan9.Fcall{
		Type:   plan9.Twrite,
		Fid:    f.num,
		Offset: offset,
		Data:   data,
	})
	if err != nil {
		return 0, err
	}
	return rx.Count, nil
}

// WriteString writes s at offset 0, the common shape for ctl and
// property files.
func (f *Fid) WriteString(s string) error {
	_, err := f.Write([]byte(s), 0)
	return err
}

// Stat returns the server's stat record for the fid.
func (f *Fid) Stat() (*plan9.Dir, error) {
	rx, err := f.client.rpc(&plan9.Fcall{
		Type: plan9.Tstat,
		Fid:  f.num,
	})
	if err != nil {
		return nil, err
	}
	return plan9.UnmarshalDir(rx.Stat)
}

// Dirread reads the whole directory and decodes its stat records in
// server order. The fid must be open for reading.
func (f *Fid) Dirread() ([]*plan9.Dir, error) {
	data, err := f.ReadAll()
	if err != nil {
		return nil, err
	}

	var entries []*plan9.Dir
	for len(data) > 0 {
		if len(data) < 2 {
			return nil, fmt.Errorf("truncated stat record in directory read")
		}
		size := int(binary.LittleEndian.Uint16(data)) + 2
		if size > len(data) {
			return nil, fmt.Errorf("stat record of %d bytes exceeds remaining %d", size, len(data))
		}
		entry, err := plan9.UnmarshalDir(data[:size])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		data = data[size:]
	}
	return entries, nil
}

// Clunk releases the fid. The handle is dead afterwards; its number
// is retired, not recycled.
func (f *Fid) Clunk() error {
	_, err := f.client.rpc(&plan9.Fcall{
		Type: plan9.Tclunk,
		Fid:  f.num,
	})
	return err
}
