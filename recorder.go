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

import "time"

// Recorder receives operational events for metrics. Implementations
// must be safe for concurrent use.
type Recorder interface {
	// BlinkCycle is called after every full on/off cycle of the blinker.
	BlinkCycle()
	// Playback is called after a one-shot message was played.
	Playback(symbols int, d time.Duration)
	// Request is called for every handled HTTP request.
	Request(outcome string)
	// ActuatorWait reports how long a player waited for the LED.
	ActuatorWait(d time.Duration)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) BlinkCycle()                 {}
func (NopRecorder) Playback(int, time.Duration) {}
func (NopRecorder) Request(string)              {}
func (NopRecorder) ActuatorWait(time.Duration)  {}
