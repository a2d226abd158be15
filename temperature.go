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
	"sync"

	"tinygo.org/x/drivers"
)

// SampleToCelsius converts a 16-bit sample of the RP2 on-die sensor
// (3.3V reference) to degree Celsius.
func SampleToCelsius(raw uint16) float64 {
	volts := float64(raw) * 3.3 / 65535
	return 27 - (volts-0.706)/0.001721
}

// TempSource serializes access to a thermometer shared by the blinker
// and the request handler.
type TempSource struct {
	mu     sync.Mutex
	sensor Thermometer
}

// NewTempSource wraps a thermometer; a nil sensor always reads NaN.
func NewTempSource(sensor Thermometer) *TempSource {
	return &TempSource{sensor: sensor}
}

// Celsius samples the sensor. Returns NaN if the sensor is missing or
// the reading failed.
func (ts *TempSource) Celsius() float64 {
	if ts == nil || ts.sensor == nil {
		return math.NaN()
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if err := ts.sensor.Update(drivers.Temperature); err != nil {
		return math.NaN()
	}
	return float64(ts.sensor.Temperature()) / 1000
}
