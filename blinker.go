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
	"context"
	"log/slog"
	"math"
	"time"
)

// Blinker timing
const (
	IdlePoll        = 100 * time.Millisecond // state poll while disabled
	TempLogInterval = time.Minute            // temperature log period
)

// Blinker is the continuous blink loop. While enabled it switches the
// LED on and off with the current interval; while disabled it keeps
// the LED off and polls the state.
type Blinker struct {
	state  *ControlState
	player *Player
	temp   *TempSource
	rec    Recorder
	logger *slog.Logger

	poll time.Duration
}

// NewBlinker creates a blinker for the given state and player.
func NewBlinker(state *ControlState, player *Player, temp *TempSource, rec Recorder, logger *slog.Logger) *Blinker {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Blinker{
		state:  state,
		player: player,
		temp:   temp,
		rec:    rec,
		logger: logger,
		poll:   IdlePoll,
	}
}

// Run the blink loop until ctx is cancelled. Cancellation is noticed
// after the current half-cycle or idle poll.
func (b *Blinker) Run(ctx context.Context) {
	var (
		last     Snapshot
		seen     bool
		lastTemp time.Time
	)
	for ctx.Err() == nil {
		if now := time.Now(); lastTemp.IsZero() || now.Sub(lastTemp) >= TempLogInterval {
			if c := b.temp.Celsius(); !math.IsNaN(c) {
				b.logger.Info("Temperature", "celsius", math.Round(c*100)/100)
			}
			lastTemp = now
		}
		s := b.state.Read()
		changed := !seen || s != last
		last, seen = s, true

		if !s.Enabled {
			if changed {
				b.logger.Info("LED OFF (forced)")
			}
			b.player.Off()
			select {
			case <-ctx.Done():
			case <-time.After(b.poll):
			}
			continue
		}
		if changed {
			b.logger.Info("LED ON", "delay", s.Interval)
		}
		b.player.Play(Pulse{On: s.Interval})
		if ctx.Err() != nil {
			break
		}
		s = b.state.Read()
		if !s.Enabled {
			continue
		}
		b.player.Play(Pulse{Off: s.Interval})
		b.rec.BlinkCycle()
	}
	b.player.Off()
	b.logger.Debug("blinker stopped")
}
