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
	"fmt"
	"log/slog"
	"time"
)

// Status codes. A status is an error value; StatOK and StatUNK are
// never returned as errors.
type Status int

// status codes
const (
	StatUNK    Status = iota // unknown status (init)
	StatOK                   // processing active
	StatDEV                  // device failure
	StatIP                   // invalid IP address
	StatWIFI                 // can't connect to AP
	StatWPA2                 // WPA2 failed
	StatDHCP1                // DHCP request failed
	StatDHCP2                // no DHCP reply
	StatLISTEN               // failed to create listener
	StatPORT                 // no free port
	StatSRV                  // can't serve requests
	StatEXCP                 // exception (panic) occured
)

var statNames = map[Status]string{
	StatUNK:    "unknown status",
	StatOK:     "ok",
	StatDEV:    "device failure",
	StatIP:     "invalid IP address",
	StatWIFI:   "can't connect to access point",
	StatWPA2:   "WPA2 join failed",
	StatDHCP1:  "DHCP request failed",
	StatDHCP2:  "no DHCP reply",
	StatLISTEN: "failed to create listener",
	StatPORT:   "all candidate ports in use",
	StatSRV:    "can't serve requests",
	StatEXCP:   "exception",
}

// Error implements the error interface.
func (s Status) Error() string {
	if name, ok := statNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status %d", int(s))
}

// Connectivity returns true if the status reports a failure to join
// the network.
func (s Status) Connectivity() bool {
	switch s {
	case StatIP, StatWIFI, StatWPA2, StatDHCP1, StatDHCP2:
		return true
	}
	return false
}

// ShowStatus blinks the status code on the LED until ctx is done:
// one long blink for every five, one short blink for each remaining
// unit, then a pause of five seconds.
func ShowStatus(ctx context.Context, p *Player, s Status) {
	var pulses []Pulse
	num := int(s)
	for num > 5 {
		pulses = append(pulses, Pulse{On: 1000 * time.Millisecond, Off: 300 * time.Millisecond})
		num -= 5
	}
	for n := 0; n < num; n++ {
		pulses = append(pulses, Pulse{On: 150 * time.Millisecond, Off: 150 * time.Millisecond})
	}
	for {
		p.Play(pulses...)
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// Trap critical failures (panic). Must be called deferred; the
// recovered panic is logged and reported as StatEXCP on the LED for
// the given time before the function returns.
func Trap(p *Player, logger *slog.Logger, t time.Duration) {
	r := recover()
	if r == nil {
		return
	}
	logger.Error("EXCP", "panic", fmt.Sprint(r))
	ctx, cancel := context.WithTimeout(context.Background(), t)
	defer cancel()
	ShowStatus(ctx, p, StatEXCP)
}
