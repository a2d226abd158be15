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

// Blink interval limits
const (
	MinInterval     = 100 * time.Millisecond
	MaxInterval     = time.Hour
	DefaultInterval = time.Second
)

// Snapshot is a consistent view of the control state.
type Snapshot struct {
	Enabled  bool
	Interval time.Duration
}

// ControlState is the shared record of desired LED behaviour. It is
// written by the request handler and read by the blinker.
type ControlState struct {
	mu       sync.Mutex
	enabled  bool
	interval time.Duration
	pending  string
}

// NewControlState returns the startup state: disabled, one second.
func NewControlState() *ControlState {
	return &ControlState{
		interval: DefaultInterval,
	}
}

// Read returns a snapshot of enabled flag and interval.
func (cs *ControlState) Read() Snapshot {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return Snapshot{
		Enabled:  cs.enabled,
		Interval: cs.interval,
	}
}

// SetEnabled switches blinking on or off.
func (cs *ControlState) SetEnabled(on bool) {
	cs.mu.Lock()
	cs.enabled = on
	cs.mu.Unlock()
}

// SetInterval sets the blink half-period. Non-positive values are
// rejected; others are clamped to [MinInterval, MaxInterval].
func (cs *ControlState) SetInterval(d time.Duration) error {
	if d <= 0 {
		return &ValidationError{Field: "delay", Value: d.String(), Reason: "must be positive"}
	}
	d = min(max(d, MinInterval), MaxInterval)
	cs.mu.Lock()
	cs.interval = d
	cs.mu.Unlock()
	return nil
}

// SetPendingMessage queues a message for one-shot playback. A message
// still pending is replaced.
func (cs *ControlState) SetPendingMessage(msg string) {
	cs.mu.Lock()
	cs.pending = msg
	cs.mu.Unlock()
}

// TakePendingMessage returns the pending message and clears it.
func (cs *ControlState) TakePendingMessage() (string, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	msg := cs.pending
	cs.pending = ""
	return msg, len(msg) > 0
}
