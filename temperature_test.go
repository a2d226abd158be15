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
	"math"
	"testing"
)

func TestSampleToCelsius(t *testing.T) {
	// 0.706V is 27°C
	if c := SampleToCelsius(14020); math.Abs(c-27) > 0.05 {
		t.Fatalf("nominal sample: %v", c)
	}
	// the sensor voltage drops with rising temperature
	if SampleToCelsius(13000) <= SampleToCelsius(14000) {
		t.Fatal("conversion not decreasing")
	}
	// 1.721mV per degree
	step := 0.001721 * 65535 / 3.3
	if d := SampleToCelsius(14020) - SampleToCelsius(uint16(14020+math.Round(step*10))); math.Abs(d-10) > 0.1 {
		t.Fatalf("10 degrees step: %v", d)
	}
}

func TestTempSource(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  *TempSource
		want float64
	}{
		{"ok", NewTempSource(&fakeThermometer{milliC: 23456}), 23.456},
		{"negative", NewTempSource(&fakeThermometer{milliC: -5250}), -5.25},
		{"failed", NewTempSource(&fakeThermometer{milliC: 1, err: errBroken}), math.NaN()},
		{"missing", NewTempSource(nil), math.NaN()},
		{"nil", nil, math.NaN()},
	} {
		got := tc.src.Celsius()
		if math.IsNaN(tc.want) != math.IsNaN(got) || !math.IsNaN(got) && math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
