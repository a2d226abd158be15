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
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"
)

// build a test namespace
func newNamespace() (ns *Namespace, err error) {
	ns = NewNamespace("sys", "sys")
	if err = ns.NewFile("/readme", 0444, NewTextFile("Just a test...\n")); err != nil {
		return
	}
	if err = ns.NewDir("/sensors", 0777); err != nil {
		return
	}
	err = ns.NewFile("/sensors/temp", 0444, NewFuncFile(
		func() ([]byte, error) {
			return []byte("21.5\n"), nil
		},
	))
	return
}

func read(t *testing.T, ns *Namespace, p string) string {
	t.Helper()
	e, err := ns.Get(p)
	if err != nil {
		t.Fatalf("Get(%s): %v", p, err)
	}
	if e.IsDir() {
		t.Fatalf("%s is a directory", p)
	}
	data, err := e.file.Read()
	if err != nil {
		t.Fatalf("Read(%s): %v", p, err)
	}
	return string(data)
}

func TestNamespaceNew(t *testing.T) {
	ns, err := newNamespace()
	if err != nil {
		t.Fatal(err)
	}
	if got := read(t, ns, "/sensors/temp"); got != "21.5\n" {
		t.Fatalf("got %q", got)
	}
	if e, err := ns.Get("/sensors/"); err != nil || !e.IsDir() || e.Name() != "sensors" {
		t.Fatalf("Get(/sensors/): %v", err)
	}
	if root := ns.Root(); root == nil || !root.IsDir() || root.ref.Qid.Path != 0 {
		t.Fatal("bad root")
	}
}

func TestNamespaceErrors(t *testing.T) {
	ns, err := newNamespace()
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		name string
		err  error
		want error
	}{
		{"exists", ns.NewFile("/readme", 0444, NewTextFile("")), errExists},
		{"relative", ns.NewDir("sensors/x", 0555), errNoAbs},
		{"under file", ns.NewFile("/readme/x", 0444, NewTextFile("")), errNoDir},
		{"no parent", ns.NewFile("/none/x", 0444, NewTextFile("")), errNoFile},
	} {
		if !errors.Is(tc.err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, tc.err, tc.want)
		}
	}
	if _, err = ns.Get("/sensors/humidity"); !errors.Is(err, errNoFile) {
		t.Errorf("missing file: %v", err)
	}
	if _, err = ns.Get(""); !errors.Is(err, errNoAbs) {
		t.Errorf("empty path: %v", err)
	}
	if err = NewTextFile("x").Write([]byte("y")); !errors.Is(err, errReadOnly) {
		t.Errorf("write: %v", err)
	}
}

func TestNamespaceWalk(t *testing.T) {
	ns, err := newNamespace()
	if err != nil {
		t.Fatal(err)
	}
	root := ns.Root()
	q := ns.Walk(&root.ref.Qid, "sensors")
	if q == nil {
		t.Fatal("walk to /sensors failed")
	}
	if q = ns.Walk(q, "temp"); q == nil {
		t.Fatal("walk to /sensors/temp failed")
	}
	if ns.Walk(q, "x") != nil {
		t.Fatal("walk below a file")
	}
	if ns.Walk(&root.ref.Qid, "nothing") != nil {
		t.Fatal("walk to missing entry")
	}
}

func TestStatusNamespace(t *testing.T) {
	f := newHandlerFixture()
	ns, err := StatusNamespace(f.state, f.h, NewTempSource(&fakeThermometer{milliC: 30140}))
	if err != nil {
		t.Fatal(err)
	}
	for p, want := range map[string]string{
		"/version":    Version + "\n",
		"/led":        "off\n",
		"/delay":      "1\n",
		"/temp":       "30.14\n",
		"/morse/last": "\n",
		"/morse/code": "\n",
	} {
		if got := read(t, ns, p); got != want {
			t.Errorf("%s = %q, want %q", p, got, want)
		}
	}

	f.query(t, "led=on&delay=0.25&morse=hi")
	for p, want := range map[string]string{
		"/led":        "on\n",
		"/delay":      "0.25\n",
		"/morse/last": "hi\n",
		"/morse/code": ".... ..\n",
	} {
		if got := read(t, ns, p); got != want {
			t.Errorf("%s = %q, want %q", p, got, want)
		}
	}

	ns, err = StatusNamespace(f.state, f.h, NewTempSource(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := read(t, ns, "/temp"); got != "n/a\n" {
		t.Errorf("/temp = %q without sensor", got)
	}
}

func TestNamespaceServe(t *testing.T) {
	ns, err := newNamespace()
	if err != nil {
		t.Fatal(err)
	}
	lst, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		done <- ns.Serve(lst, testLogger())
	}()
	addr := lst.Addr().String()

	// a non-9p client and a hangup mid-message end only their session
	for _, junk := range []string{
		"GET / HTTP/1.1\r\n\r\n",
		"\x02\x00\x00\x00",
		"\x40\x00\x00\x00\x64\xff",
	} {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err = conn.Write([]byte(junk)); err != nil {
			t.Fatal(err)
		}
		conn.Close()
	}

	// concurrent sessions use the same fids
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := dialNinep(addr)
			if err != nil {
				errs <- err
				return
			}
			defer c.Close()
			for j := 0; j < 5; j++ {
				got, err := c.readFile("sensors", "temp")
				if err != nil {
					errs <- err
					return
				}
				if got != "21.5\n" {
					errs <- fmt.Errorf("temp = %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	c, err := dialNinep(addr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = c.readFile("missing"); err == nil {
		t.Error("walk to missing file succeeded")
	}
	// an open session is closed with the listener
	lst.Close()
	select {
	case err = <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	if _, err = c.readFile("readme"); err == nil {
		t.Error("session still open")
	}
	c.Close()
}
