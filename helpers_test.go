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
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"
)

// ledEvent is a recorded LED switch.
type ledEvent struct {
	on bool
	at time.Time
}

// fakeLED records LED switches.
type fakeLED struct {
	mu     sync.Mutex
	events []ledEvent
}

func (d *fakeLED) LED(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ledEvent{on: on, at: time.Now()})
}

// history returns a copy of the recorded events.
func (d *fakeLED) history() []ledEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ledEvent{}, d.events...)
}

// ons returns the times the LED was switched on.
func (d *fakeLED) ons() (out []time.Time) {
	for _, ev := range d.history() {
		if ev.on {
			out = append(out, ev.at)
		}
	}
	return
}

// isOn returns the last LED state.
func (d *fakeLED) isOn() bool {
	h := d.history()
	return len(h) > 0 && h[len(h)-1].on
}

// fakeThermometer reports a fixed temperature or fails.
type fakeThermometer struct {
	milliC int32
	err    error
}

func (t *fakeThermometer) Update(which drivers.Measurement) error {
	return t.err
}

func (t *fakeThermometer) Temperature() int32 {
	return t.milliC
}

// countingRecorder counts events.
type countingRecorder struct {
	cycles    atomic.Int32
	playbacks atomic.Int32
	symbols   atomic.Int32
	waits     atomic.Int32

	mu       sync.Mutex
	requests map[string]int
}

func (r *countingRecorder) BlinkCycle() { r.cycles.Add(1) }

func (r *countingRecorder) Playback(n int, _ time.Duration) {
	r.playbacks.Add(1)
	r.symbols.Add(int32(n))
}

func (r *countingRecorder) Request(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requests == nil {
		r.requests = make(map[string]int)
	}
	r.requests[outcome]++
}

func (r *countingRecorder) ActuatorWait(time.Duration) { r.waits.Add(1) }

func (r *countingRecorder) count(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[outcome]
}

// loopSession listens on loopback addresses. Listening on a port in
// busy fails with ErrPortInUse; any other port gets an ephemeral
// loopback listener which is recorded for the test.
type loopSession struct {
	busy map[uint16]bool
	fail map[uint16]error

	mu        sync.Mutex
	listeners map[uint16]net.Listener
	ready     chan uint16
}

func newLoopSession(busy ...uint16) *loopSession {
	s := &loopSession{
		busy:      make(map[uint16]bool),
		fail:      make(map[uint16]error),
		listeners: make(map[uint16]net.Listener),
		ready:     make(chan uint16, 4),
	}
	for _, p := range busy {
		s.busy[p] = true
	}
	return s
}

func (s *loopSession) Addr() netip.Addr {
	return netip.MustParseAddr("127.0.0.1")
}

func (s *loopSession) Listen(port uint16) (net.Listener, error) {
	if s.busy[port] {
		return nil, fmt.Errorf("%w: port %d", ErrPortInUse, port)
	}
	if err := s.fail[port]; err != nil {
		return nil, err
	}
	lst, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.listeners[port] = lst
	s.mu.Unlock()
	s.ready <- port
	return lst, nil
}

// addr returns the real address behind a logical port.
func (s *loopSession) addr(port uint16) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lst, ok := s.listeners[port]; ok {
		return lst.Addr().String()
	}
	return ""
}

var errBroken = errors.New("broken")

// get sends a raw request line to addr and returns the full response.
func get(addr, target string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err = fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: pico\r\nUser-Agent: test\r\n\r\n", target); err != nil {
		return "", err
	}
	body, err := io.ReadAll(conn)
	return string(body), err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastPlayer returns a player that does not sleep.
func fastPlayer(dev Device, rec Recorder) *Player {
	p := NewPlayer(dev, rec)
	p.sleep = func(time.Duration) {}
	return p
}

// ninepClient is a minimal 9P2000 client reading files from a
// namespace server.
type ninepClient struct {
	conn net.Conn
	tag  uint16
	fid  uint32
}

// 9P2000 message types used by ninepClient.
const (
	msgTversion = 100
	msgTattach  = 104
	msgRerror   = 107
	msgTwalk    = 110
	msgTopen    = 112
	msgTread    = 116
)

func dialNinep(addr string) (*ninepClient, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	c := &ninepClient{conn: conn, tag: 0xFFFF}
	body := binary.LittleEndian.AppendUint32(nil, 8192+24)
	body = appendStr(body, "9P2000")
	if _, err = c.rpc(msgTversion, body); err != nil {
		conn.Close()
		return nil, err
	}
	c.tag = 0
	return c, nil
}

func (c *ninepClient) Close() error {
	return c.conn.Close()
}

func appendStr(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint16(b, uint16(len(s)))
	return append(b, s...)
}

// rpc sends a request and returns the body of the reply.
func (c *ninepClient) rpc(typ byte, body []byte) ([]byte, error) {
	msg := make([]byte, 7, 7+len(body))
	binary.LittleEndian.PutUint32(msg, uint32(7+len(body)))
	msg[4] = typ
	binary.LittleEndian.PutUint16(msg[5:], c.tag)
	msg = append(msg, body...)
	if _, err := c.conn.Write(msg); err != nil {
		return nil, err
	}
	reply, err := readMessage(c.conn)
	if err != nil {
		return nil, err
	}
	if tag := binary.LittleEndian.Uint16(reply[5:]); tag != c.tag {
		return nil, fmt.Errorf("reply tag %d, want %d", tag, c.tag)
	}
	c.tag++
	switch reply[4] {
	case msgRerror:
		n := binary.LittleEndian.Uint16(reply[7:])
		return nil, errors.New(string(reply[9 : 9+n]))
	case typ + 1:
		return reply[7:], nil
	}
	return nil, fmt.Errorf("reply type %d to request %d", reply[4], typ)
}

// readFile attaches to the namespace root, walks to the file at the
// (relative) path names and reads its content.
func (c *ninepClient) readFile(names ...string) (string, error) {
	root, file := c.fid, c.fid+1
	c.fid += 2

	body := binary.LittleEndian.AppendUint32(nil, root)
	body = binary.LittleEndian.AppendUint32(body, 0xFFFFFFFF)
	body = appendStr(appendStr(body, "test"), "")
	if _, err := c.rpc(msgTattach, body); err != nil {
		return "", fmt.Errorf("attach: %w", err)
	}

	body = binary.LittleEndian.AppendUint32(nil, root)
	body = binary.LittleEndian.AppendUint32(body, file)
	body = binary.LittleEndian.AppendUint16(body, uint16(len(names)))
	for _, name := range names {
		body = appendStr(body, name)
	}
	reply, err := c.rpc(msgTwalk, body)
	if err != nil {
		return "", fmt.Errorf("walk: %w", err)
	}
	if n := binary.LittleEndian.Uint16(reply); int(n) != len(names) {
		return "", fmt.Errorf("walk: %d of %d names", n, len(names))
	}

	body = binary.LittleEndian.AppendUint32(nil, file)
	if _, err = c.rpc(msgTopen, append(body, 0)); err != nil {
		return "", fmt.Errorf("open: %w", err)
	}

	body = binary.LittleEndian.AppendUint32(nil, file)
	body = binary.LittleEndian.AppendUint64(body, 0)
	body = binary.LittleEndian.AppendUint32(body, 8192)
	if reply, err = c.rpc(msgTread, body); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	n := binary.LittleEndian.Uint32(reply)
	return string(reply[4 : 4+n]), nil
}
