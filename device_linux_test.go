//go:build !rp2040 && !rp2350

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
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tinygo.org/x/drivers"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimSpace(string(data))
}

func TestLinuxDeviceLED(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"trigger", "brightness"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	dev := NewLinuxDevice(dir, "", testLogger())
	if got := readFile(t, filepath.Join(dir, "trigger")); got != "none" {
		t.Fatalf("trigger %q", got)
	}
	dev.LED(true)
	if !dev.IsOn() || readFile(t, filepath.Join(dir, "brightness")) != "1" {
		t.Fatal("LED not on")
	}
	dev.LED(false)
	if dev.IsOn() || readFile(t, filepath.Join(dir, "brightness")) != "0" {
		t.Fatal("LED not off")
	}
}

func TestLinuxDeviceNoLED(t *testing.T) {
	dev := NewLinuxDevice("", "", nil)
	dev.LED(true)
	if !dev.IsOn() {
		t.Fatal("state not kept")
	}
	// a missing LED directory is logged once
	dev = NewLinuxDevice(filepath.Join(t.TempDir(), "none"), "", testLogger())
	dev.LED(true)
	dev.LED(false)
	if !dev.failed {
		t.Fatal("failure not noted")
	}
}

func TestLinuxDeviceTemperature(t *testing.T) {
	zone := filepath.Join(t.TempDir(), "temp")
	if err := os.WriteFile(zone, []byte("45678\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dev := NewLinuxDevice("", zone, nil)
	if c := NewTempSource(dev).Celsius(); math.Abs(c-45.678) > 1e-9 {
		t.Fatalf("got %v", c)
	}

	if err := os.WriteFile(zone, []byte("hot\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := dev.Update(drivers.Temperature); err == nil {
		t.Fatal("garbage accepted")
	}
	if c := NewTempSource(NewLinuxDevice("", zone+".missing", nil)).Celsius(); !math.IsNaN(c) {
		t.Fatalf("missing zone: %v", c)
	}

	// without a zone the nominal value is reported
	dev = NewLinuxDevice("", "", nil)
	if c := NewTempSource(dev).Celsius(); math.Abs(c-27) > 0.05 {
		t.Fatalf("nominal: %v", c)
	}
}

func TestHostSessionListen(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()
	port := uint16(busy.Addr().(*net.TCPAddr).Port)

	sess := &hostSession{}
	if _, err = sess.Listen(port); !errors.Is(err, ErrPortInUse) {
		t.Fatalf("got %v, want ErrPortInUse", err)
	}

	lst, port2, err := ListenFirst(sess, []uint16{port, 0}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer lst.Close()
	if port2 != 0 {
		t.Fatalf("bound %d", port2)
	}
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", lst.Addr().(*net.TCPAddr).Port), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	conn.Close()
}
