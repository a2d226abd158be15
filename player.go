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
	"sync"
	"time"
)

// Pulse of the LED: on for On, then off for Off.
type Pulse struct {
	On  time.Duration
	Off time.Duration
}

// Player drives the LED through timed pulses. It owns exclusive access
// to the device: concurrent Play calls are serialized and a started
// sequence always runs to its end.
type Player struct {
	mu    sync.Mutex
	dev   Device
	rec   Recorder
	sleep func(time.Duration)
}

// NewPlayer for the given device. A nil recorder is replaced by a
// NopRecorder.
func NewPlayer(dev Device, rec Recorder) *Player {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Player{
		dev:   dev,
		rec:   rec,
		sleep: time.Sleep,
	}
}

// Play the pulses synchronously. A pulse without on-time only keeps
// the LED off for its off-time.
func (p *Player) Play(pulses ...Pulse) {
	p.acquire()
	defer p.mu.Unlock()
	for _, pulse := range pulses {
		if pulse.On > 0 {
			p.dev.LED(true)
			p.sleep(pulse.On)
		}
		p.dev.LED(false)
		if pulse.Off > 0 {
			p.sleep(pulse.Off)
		}
	}
}

// PlaySequence plays an encoded message with the given unit.
func (p *Player) PlaySequence(seq Sequence, unit time.Duration) {
	pulses := seq.Pulses(unit)
	if len(pulses) == 0 {
		return
	}
	p.Play(pulses...)
}

// Off switches the LED off once the device is available.
func (p *Player) Off() {
	p.acquire()
	p.dev.LED(false)
	p.mu.Unlock()
}

// acquire the device lock and report the waiting time.
func (p *Player) acquire() {
	if p.mu.TryLock() {
		p.rec.ActuatorWait(0)
		return
	}
	start := time.Now()
	p.mu.Lock()
	p.rec.ActuatorWait(time.Since(start))
}
