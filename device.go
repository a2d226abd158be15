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
	"net"
	"net/netip"
	"time"

	"tinygo.org/x/drivers"
)

// Device is a hardware abstraction
type Device interface {
	// LED on or off (if applicable)
	LED(on bool)
}

// Thermometer is the onboard temperature sensor. Update(drivers.Temperature)
// samples the sensor, Temperature returns the last sample in milli-Celsius.
type Thermometer interface {
	drivers.Sensor
	Temperature() int32
}

// ErrPortInUse is returned by Session.Listen if the port is already bound.
var ErrPortInUse = errors.New("address in use")

// NetConfig for joining the wireless network.
type NetConfig struct {
	Hostname    string        // DHCP hostname
	SSID        string        // access point
	Passwd      string        // WPA2 passphrase (empty for open networks)
	RequestedIP string        // DHCP requested IP; static fallback
	Attempts    int           // number of join attempts
	Retry       time.Duration // pause between attempts
	TCPPorts    uint16        // number of TCP ports the stack can open
}

// DefaultNetConfig returns the join policy of the controller:
// 20 attempts, one second apart.
func DefaultNetConfig() NetConfig {
	return NetConfig{
		Hostname: "picoled",
		Attempts: 20,
		Retry:    time.Second,
		TCPPorts: 2,
	}
}

// Session is an established network connection of the device.
type Session interface {
	// Addr returns the local IP address.
	Addr() netip.Addr
	// Listen on a TCP port. Returns ErrPortInUse (wrapped) if the port
	// is not available.
	Listen(port uint16) (net.Listener, error)
}
