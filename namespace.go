//----------------------------------------------------------------------
// This file is part of picoled.
// Copyright (C) 2024-present Bernd Fix   >Y<
//
// picoled is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// picoled is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package picoled

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path"
	"runtime"
	"strings"
	"sync"

	"git.sr.ht/~moody/ninep"
)

// Error messages
var (
	errNoRoot = errors.New("no root directory")
	errNoFile = errors.New("no such file or directory")
	errNoDir  = errors.New("not a directory")
	errNoAbs  = errors.New("no absolute path")
	errExists = errors.New("file exists")
)

//----------------------------------------------------------------------

// Entry in the filesystem
type Entry struct {
	ref      *ninep.Dir        // 9p reference
	children map[string]*Entry // list of children (for folders) or nil
	file     File              // file implementation or nil (for folders)
}

// IsDir returns true if entry is a directory
func (e *Entry) IsDir() bool {
	return e.children != nil
}

// Name of the entry
func (e *Entry) Name() string {
	return e.ref.Name
}

//----------------------------------------------------------------------

// Namespace is a synthetic file system.
type Namespace struct {
	ninep.NopFS                   // use default handlers where needed
	user, group string            // owner of all entries
	mu          sync.Mutex        // guards dict and children
	dict        map[uint64]*Entry // map Qid.Path to filesystem entry
	nextId      uint64            // next free Qid.Path
}

// NewNamespace creates a new filesystem (with root directory) for the given
// user/group.
func NewNamespace(user, group string) *Namespace {
	ns := &Namespace{
		user:  user,
		group: group,
		dict:  make(map[uint64]*Entry),
	}
	root := ns.newEntry("/", 0555, nil)
	ns.dict[root.ref.Path] = root
	return ns
}

// Create a new entry in the filesystem.
// If impl is nil, the entry represents a directory; otherwise a file.
func (ns *Namespace) newEntry(name string, perm uint32, impl File) *Entry {
	e := new(Entry)
	kind := ninep.QTFile
	if impl == nil {
		kind = ninep.QTDir
		e.children = make(map[string]*Entry)
		perm |= ninep.DMDir
	} else {
		e.file = impl
	}
	e.ref = &ninep.Dir{
		Qid: ninep.Qid{
			Path: ns.nextId,
			Vers: 0,
			Type: byte(kind),
		},
		Name: name,
		Mode: perm,
		Uid:  ns.user,
		Gid:  ns.group,
		Muid: ns.user,
	}
	ns.nextId++
	return e
}

// Root returns the entry of the root directory
func (ns *Namespace) Root() *Entry {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.dict[0]
}

// NewFile adds a file at the absolute path; the parent directory must exist.
func (ns *Namespace) NewFile(p string, perm uint32, impl File) error {
	return ns.add(p, perm, impl)
}

// NewDir adds a directory at the absolute path; the parent must exist.
func (ns *Namespace) NewDir(p string, perm uint32) error {
	return ns.add(p, perm, nil)
}

func (ns *Namespace) add(p string, perm uint32, impl File) error {
	if len(p) == 0 || p[0] != '/' {
		return errNoAbs
	}
	dir, name := path.Split(path.Clean(p))
	parent, err := ns.Get(dir)
	if err != nil {
		return err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if parent.children == nil {
		return errNoDir
	}
	if _, ok := parent.children[name]; ok {
		return errExists
	}
	child := ns.newEntry(name, perm, impl)
	parent.children[name] = child
	ns.dict[child.ref.Path] = child
	return nil
}

// Get entry with given path
func (ns *Namespace) Get(p string) (*Entry, error) {
	if len(p) == 0 || p[0] != '/' {
		return nil, errNoAbs
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	curr := ns.dict[0]
	for _, label := range strings.Split(p[1:], "/") {
		if len(label) == 0 {
			continue
		}
		if curr.children == nil {
			return nil, errNoDir
		}
		next, ok := curr.children[label]
		if !ok {
			return nil, errNoFile
		}
		curr = next
	}
	return curr, nil
}

// Serve the 9p protocol on accepted connections until the listener
// is closed. Each connection gets its own server (fid table) and
// goroutine; open connections are closed when Serve returns.
func (ns *Namespace) Serve(lst net.Listener, logger *slog.Logger) error {
	var mu sync.Mutex
	var wg sync.WaitGroup
	conns := make(map[net.Conn]struct{})
	defer func() {
		mu.Lock()
		for c := range conns {
			c.Close()
		}
		mu.Unlock()
		wg.Wait()
	}()
	for {
		c, err := lst.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		logger.Debug("9p session", "remote", c.RemoteAddr().String())
		mu.Lock()
		conns[c] = struct{}{}
		mu.Unlock()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, c)
				mu.Unlock()
				c.Close()
				if r := recover(); r != nil {
					logger.Warn("9p session failed", "remote", c.RemoteAddr().String(), "panic", fmt.Sprint(r))
				}
				logger.Debug("9p session closed", "remote", c.RemoteAddr().String())
			}()
			srv := ninep.NewSrv(func() ninep.FS { return ns })
			srv.ServeIO(&msgReader{conn: c}, &msgWriter{conn: c})
		}()
	}
}

//----------------------------------------------------------------------

// maxMessage bounds the size of an accepted 9p request. The server
// echoes the client msize, so this is larger than the iounit.
const maxMessage = 1 << 20

// errMsgSize is returned for a request of invalid size.
var errMsgSize = errors.New("invalid 9p message size")

// msgReader delivers whole 9p messages from a connection to the
// server. The server exits the process on read errors, so a failed
// read (hangup, garbage) closes the connection and ends the serving
// goroutine with runtime.Goexit instead; deferred calls still run and
// stop the server's writer.
type msgReader struct {
	conn net.Conn
	buf  []byte // rest of the current message
}

// Read implements io.Reader.
func (r *msgReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		msg, err := readMessage(r.conn)
		if err != nil {
			r.conn.Close()
			runtime.Goexit()
		}
		r.buf = msg
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// readMessage reads a size-prefixed 9p message.
func readMessage(rdr io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(rdr, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(hdr[:])
	if size < 7 || size > maxMessage {
		return nil, errMsgSize
	}
	msg := make([]byte, size)
	copy(msg, hdr[:])
	if _, err := io.ReadFull(rdr, msg[4:]); err != nil {
		return nil, err
	}
	return msg, nil
}

// msgWriter sends responses to the connection. Write errors close the
// connection (which ends the reader) and are not passed on: the server
// exits the process on them.
type msgWriter struct {
	conn   net.Conn
	failed bool
}

// Write implements io.Writer.
func (w *msgWriter) Write(p []byte) (int, error) {
	if !w.failed {
		if _, err := w.conn.Write(p); err != nil {
			w.failed = true
			w.conn.Close()
		}
	}
	return len(p), nil
}

//----------------------------------------------------------------------

// ninep FS implementation

// Attach to 9p session
func (ns *Namespace) Attach(t *ninep.Tattach) {
	if e := ns.Root(); e != nil {
		t.Respond(&e.ref.Qid)
	} else {
		t.Err(errNoRoot)
	}
}

// Walk to child entry with name "next".
func (ns *Namespace) Walk(cur *ninep.Qid, next string) *ninep.Qid {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	e, ok := ns.dict[cur.Path]
	if !ok || e.children == nil {
		return nil
	}
	if c, ok := e.children[next]; ok {
		return &c.ref.Qid
	}
	return nil
}

// Open entry for file operation
func (ns *Namespace) Open(t *ninep.Topen, q *ninep.Qid) {
	t.Respond(q, 8192)
}

// Read from entry. Either return the content of a file
// or the listing from a directory.
func (ns *Namespace) Read(t *ninep.Tread, q *ninep.Qid) {
	ns.mu.Lock()
	e, ok := ns.dict[q.Path]
	var kids []ninep.Dir
	if ok && e.children != nil {
		for _, c := range e.children {
			kids = append(kids, *c.ref)
		}
	}
	ns.mu.Unlock()
	if !ok {
		t.Err(errNoFile)
		return
	}
	if e.children != nil {
		ninep.ReadDir(t, kids)
		return
	}
	data, err := e.file.Read()
	if err != nil {
		t.Err(err)
	} else {
		ninep.ReadBuf(t, data)
	}
}

// Stat returns information for a filesytem entry.
func (ns *Namespace) Stat(t *ninep.Tstat, q *ninep.Qid) {
	ns.mu.Lock()
	e, ok := ns.dict[q.Path]
	ns.mu.Unlock()
	if !ok {
		t.Err(errNoFile)
	} else {
		t.Respond(e.ref)
	}
}
