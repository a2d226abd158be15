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
	"log/slog"
	"sync"
	"time"
)

// Report is the status record rendered after a request.
type Report struct {
	Enabled  bool
	Interval time.Duration
	Celsius  float64 // NaN if the sensor failed
	Stopping bool    // a stop was requested
}

// Handler applies control commands to the state and plays Morse
// messages. Playback is synchronous: the caller is blocked until the
// message is finished.
type Handler struct {
	state    *ControlState
	player   *Player
	temp     *TempSource
	unit     time.Duration
	shutdown func()
	rec      Recorder
	logger   *slog.Logger

	mu   sync.Mutex
	last string // last played message
}

// NewHandler creates a request handler. shutdown is called by Shutdown
// once a stop command was answered.
func NewHandler(state *ControlState, player *Player, temp *TempSource, unit time.Duration, shutdown func(), rec Recorder, logger *slog.Logger) *Handler {
	if rec == nil {
		rec = NopRecorder{}
	}
	if unit <= 0 {
		unit = DefaultUnit
	}
	return &Handler{
		state:    state,
		player:   player,
		temp:     temp,
		unit:     unit,
		shutdown: shutdown,
		rec:      rec,
		logger:   logger,
	}
}

// Handle a command and return the resulting status.
func (h *Handler) Handle(cmd Command) Report {
	before := h.state.Read()
	if cmd.LED != nil {
		h.state.SetEnabled(*cmd.LED)
	}
	if cmd.Delay != nil {
		secs := min(*cmd.Delay, MaxInterval.Seconds())
		d := time.Duration(secs * float64(time.Second))
		if secs > 0 {
			d = max(d, MinInterval)
		}
		if err := h.state.SetInterval(d); err != nil {
			h.logger.Debug("delay ignored", "error", err)
		}
	}
	if cmd.Stop {
		h.logger.Info("Stopping by web request")
		return h.report(true)
	}
	if len(cmd.Message) > 0 {
		h.state.SetPendingMessage(cmd.Message)
		h.playPending()
	}
	if after := h.state.Read(); after != before {
		state := "OFF"
		if after.Enabled {
			state = "ON"
		}
		h.logger.Info("Web update", "led", state, "delay", after.Interval)
	}
	return h.report(false)
}

// Shutdown signals process termination.
func (h *Handler) Shutdown() {
	if h.shutdown != nil {
		h.shutdown()
	}
}

// LastMessage returns the most recently played message.
func (h *Handler) LastMessage() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Status returns the current report without changing anything.
func (h *Handler) Status() Report {
	return h.report(false)
}

// playPending plays the pending message (if any) as Morse code.
func (h *Handler) playPending() {
	msg, ok := h.state.TakePendingMessage()
	if !ok {
		return
	}
	seq := Encode(msg)
	h.logger.Info("Morse", "message", msg, "code", Format(seq))
	start := time.Now()
	h.player.PlaySequence(seq, h.unit)
	h.rec.Playback(len(seq), time.Since(start))
	h.logger.Info("Morse code done")

	h.mu.Lock()
	h.last = msg
	h.mu.Unlock()
}

func (h *Handler) report(stopping bool) Report {
	s := h.state.Read()
	return Report{
		Enabled:  s.Enabled,
		Interval: s.Interval,
		Celsius:  h.temp.Celsius(),
		Stopping: stopping,
	}
}
