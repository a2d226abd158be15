//go:build !rp2040 && !rp2350

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
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"tinygo.org/x/drivers"
)

// nominal sensor sample (0.706V = 27°C) used without a thermal zone
const nominalSample = 14020

// LinuxDevice (for testing purposes and Linux boards). The LED is
// driven through the sysfs LED class if a LED directory is set; the
// temperature is read from a thermal zone if one is set.
type LinuxDevice struct {
	led     string // sysfs LED directory, e.g. /sys/class/leds/ACT
	thermal string // thermal zone file in milli-Celsius
	logger  *slog.Logger

	mu     sync.Mutex
	on     bool
	milliC int32
	failed bool // LED write failure already logged
}

// NewLinuxDevice for the given sysfs LED directory and thermal zone
// file (both optional).
func NewLinuxDevice(led, thermal string, logger *slog.Logger) *LinuxDevice {
	if logger == nil {
		logger = slog.Default()
	}
	dev := &LinuxDevice{
		led:     led,
		thermal: thermal,
		logger:  logger,
	}
	if led != "" {
		// switch to manual control
		trigger := filepath.Join(led, "trigger")
		if err := os.WriteFile(trigger, []byte("none"), 0644); err != nil {
			logger.Warn("failed to set LED trigger", "path", trigger, "error", err)
		}
	}
	return dev
}

// Initialize device
func InitDevice() Device {
	return NewLinuxDevice("", "", nil)
}

// LED on or off
func (dev *LinuxDevice) LED(on bool) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.on = on
	if dev.led == "" {
		return
	}
	val := "0"
	if on {
		val = "1"
	}
	path := filepath.Join(dev.led, "brightness")
	if err := os.WriteFile(path, []byte(val), 0644); err != nil && !dev.failed {
		dev.logger.Error("failed to set LED brightness", "path", path, "error", err)
		dev.failed = true
	}
}

// IsOn returns the last LED state set.
func (dev *LinuxDevice) IsOn() bool {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.on
}

// Update the temperature measurement.
func (dev *LinuxDevice) Update(which drivers.Measurement) error {
	if which&drivers.Temperature == 0 {
		return nil
	}
	milliC := int32(SampleToCelsius(nominalSample) * 1000)
	if dev.thermal != "" {
		data, err := os.ReadFile(dev.thermal)
		if err != nil {
			return err
		}
		v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 32)
		if err != nil {
			return fmt.Errorf("thermal zone %s: %w", dev.thermal, err)
		}
		milliC = int32(v)
	}
	dev.mu.Lock()
	dev.milliC = milliC
	dev.mu.Unlock()
	return nil
}

// Temperature of the last update in milli-Celsius.
func (dev *LinuxDevice) Temperature() int32 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.milliC
}

//----------------------------------------------------------------------

// hostSession uses the networking of the host.
type hostSession struct {
	addr netip.Addr
}

// JoinNetwork waits until the host has a non-loopback IPv4 address.
// Wireless settings in cfg are managed by the host and ignored.
func JoinNetwork(_ Device, cfg NetConfig, logger *slog.Logger) (Session, error) {
	attempts := max(cfg.Attempts, 1)
	for i := 0; i < attempts; i++ {
		addr, ok := hostAddr()
		logger.Info("Waiting for network", "attempt", fmt.Sprintf("%d/%d", i+1, attempts), "connected", ok)
		if ok {
			logger.Info("Connected", "ip", addr.String())
			return &hostSession{addr: addr}, nil
		}
		time.Sleep(cfg.Retry)
	}
	logger.Error("Wi-Fi failed!")
	return nil, StatWIFI
}

// hostAddr returns the first non-loopback IPv4 address.
func hostAddr() (netip.Addr, bool) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return netip.Addr{}, false
	}
	for _, a := range addrs {
		pfx, err := netip.ParsePrefix(a.String())
		if err != nil {
			continue
		}
		if ip := pfx.Addr(); ip.Is4() && !ip.IsLoopback() {
			return ip, true
		}
	}
	return netip.Addr{}, false
}

// Addr returns the local IP address.
func (s *hostSession) Addr() netip.Addr {
	return s.addr
}

// Listen returns a TCP listener on the given port.
func (s *hostSession) Listen(port uint16) (net.Listener, error) {
	cfg := new(net.ListenConfig)
	lst, err := cfg.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("%w: %w", ErrPortInUse, err)
		}
		return nil, err
	}
	return lst, nil
}

//----------------------------------------------------------------------

// NewLogger returns the console logger of the platform.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Prompt reads a line from the console.
func Prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}
