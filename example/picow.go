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

package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/bfix/picoled"
)

// WiFi credentials and network settings (set with -ldflags -X)
var (
	SSID   string
	Passwd string
	Host   string = "picoled"
	IP     string
	Ports  string // comma-separated HTTP ports, default 80,8080,8081
	Port9p string = "564"
)

// run the LED controller
func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	log := picoled.NewLogger(slog.LevelInfo)

	dev := picoled.InitDevice()
	therm, _ := dev.(picoled.Thermometer)
	ports, err := picoled.ParsePorts(Ports)
	if err != nil {
		log.Error("invalid port list", "ports", Ports, "error", err)
		ports = picoled.DefaultPorts
	}
	nine, err := strconv.ParseUint(Port9p, 10, 16)
	if err != nil {
		log.Error("invalid 9p port", "port", Port9p, "error", err)
	}
	ctrl := picoled.NewController(dev, therm, picoled.Options{
		Unit:     picoled.DefaultUnit,
		Ports:    ports,
		NinePort: uint16(nine),
		Logger:   log,
	})
	defer picoled.Trap(ctrl.Player, log, 30*time.Second)

	// ask for missing credentials on the console
	if len(SSID) == 0 {
		SSID = picoled.Prompt("Enter Wi-Fi SSID: ")
		Passwd = picoled.Prompt("Enter Wi-Fi password: ")
	}
	cfg := picoled.DefaultNetConfig()
	cfg.Hostname, cfg.SSID, cfg.Passwd, cfg.RequestedIP = Host, SSID, Passwd, IP

	sess, err := picoled.JoinNetwork(dev, cfg, log)
	if err != nil {
		log.Error("Could not connect to Wi-Fi.", "error", err)
		fail(ctrl, err)
		return
	}
	if err = ctrl.Run(context.Background(), sess); err != nil {
		log.Error("controller failed", "error", err)
		fail(ctrl, err)
		return
	}
	log.Info("Pico stopped.")
}

// fail shows the failure status on the LED for a while.
func fail(ctrl *picoled.Controller, err error) {
	var stat picoled.Status
	if !errors.As(err, &stat) {
		stat = picoled.StatSRV
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	picoled.ShowStatus(ctx, ctrl.Player, stat)
}
