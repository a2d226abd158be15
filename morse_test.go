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
	"testing"
	"time"
)

func TestEncodeRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"SOS", "SOS"},
		{"sos", "SOS"},
		{"Hello World", "HELLO WORLD"},
		{"pico 2w", "PICO 2W"},
		{"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"},
		{"a-b!c", "ABC"},
		{"", ""},
		{"!?", ""},
	} {
		if got := Decode(Encode(tc.in)); got != tc.want {
			t.Errorf("Decode(Encode(%q)) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEncodeSOS(t *testing.T) {
	seq := Encode("SOS")
	if got := Format(seq); got != "... --- ..." {
		t.Fatalf("Format = %q", got)
	}
	var marks []int
	for _, s := range seq {
		if s.Kind == Mark {
			marks = append(marks, s.Units)
		}
	}
	want := []int{1, 1, 1, 3, 3, 3, 1, 1, 1}
	if len(marks) != len(want) {
		t.Fatalf("got %d marks, want %d", len(marks), len(want))
	}
	for i := range want {
		if marks[i] != want[i] {
			t.Fatalf("mark %d: %d units, want %d", i, marks[i], want[i])
		}
	}
	// 9 marks (15 units), 6 gaps, 2 letter gaps
	if d := seq.Duration(time.Millisecond); d != 27*time.Millisecond {
		t.Fatalf("Duration = %v, want 27 units", d)
	}
}

func TestEncodeWordGap(t *testing.T) {
	seq := Encode("E E")
	want := Sequence{
		{Kind: Mark, Units: 1},
		{Kind: WordGap, Units: 7},
		{Kind: Mark, Units: 1},
	}
	if len(seq) != len(want) {
		t.Fatalf("got %v", seq)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("symbol %d: %v, want %v", i, seq[i], want[i])
		}
	}
	if d := seq.Duration(DefaultUnit); d != 9*DefaultUnit {
		t.Fatalf("Duration = %v", d)
	}
}

func TestEncodeEmpty(t *testing.T) {
	for _, in := range []string{"", "#", "äöü"} {
		seq := Encode(in)
		if len(seq) != 0 {
			t.Errorf("Encode(%q) = %v, want empty", in, seq)
		}
		if seq.Duration(DefaultUnit) != 0 || len(seq.Pulses(DefaultUnit)) != 0 {
			t.Errorf("Encode(%q) is not silent", in)
		}
	}
}

func TestPulses(t *testing.T) {
	u := 10 * time.Millisecond
	got := Encode("AT").Pulses(u)
	want := []Pulse{
		{On: u, Off: u},         // . + gap
		{On: 3 * u, Off: 3 * u}, // - + letter gap
		{On: 3 * u},             // -
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pulse %d: %v, want %v", i, got[i], want[i])
		}
	}

	// a leading word gap keeps the LED off first
	got = Encode(" E").Pulses(u)
	if len(got) != 2 || got[0] != (Pulse{Off: 7 * u}) || got[1] != (Pulse{On: u}) {
		t.Fatalf("leading gap: %v", got)
	}
}

func TestDecodeUnknown(t *testing.T) {
	seq := Sequence{
		{Kind: Mark, Units: 3}, {Kind: Gap, Units: 1},
		{Kind: Mark, Units: 3}, {Kind: Gap, Units: 1},
		{Kind: Mark, Units: 3}, {Kind: Gap, Units: 1},
		{Kind: Mark, Units: 3}, {Kind: Gap, Units: 1},
		{Kind: Mark, Units: 3}, {Kind: Gap, Units: 1},
		{Kind: Mark, Units: 3},
	}
	if got := Decode(seq); got != "?" {
		t.Fatalf("Decode = %q, want ?", got)
	}
}
