//go:build rp2040 || rp2350

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
	"fmt"
	"io"
	"log/slog"
	"machine"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"
	"tinygo.org/x/drivers"
)

// Raspberry Pico W / Pico 2 W. The onboard LED is GPIO 0 of the
// CYW43439 wireless chip.
type PicoWDevice struct {
	ref    *cyw43439.Device // reference to device
	milliC int32            // last temperature sample
}

// LED on or off
func (dev *PicoWDevice) LED(on bool) {
	dev.ref.GPIOSet(0, on)
}

// Update samples the on-die temperature sensor.
func (dev *PicoWDevice) Update(which drivers.Measurement) error {
	if which&drivers.Temperature != 0 {
		dev.milliC = machine.ReadTemperature()
	}
	return nil
}

// Temperature of the last update in milli-Celsius.
func (dev *PicoWDevice) Temperature() int32 {
	return dev.milliC
}

// Initialize device
func InitDevice() Device {
	machine.InitADC()
	dev := new(PicoWDevice)
	dev.ref = cyw43439.NewPicoWDevice()
	return dev
}

//----------------------------------------------------------------------

// picoSession is a joined WiFi network with a userspace TCP/IP stack.
type picoSession struct {
	stack *stacks.PortStack
	addr  netip.Addr
}

// Addr returns the local IP address.
func (s *picoSession) Addr() netip.Addr {
	return s.addr
}

// Listen returns a TCP listener on the given port.
func (s *picoSession) Listen(port uint16) (net.Listener, error) {
	listener, err := stacks.NewTCPListener(s.stack, stacks.TCPListenerConfig{
		MaxConnections: 2,
		ConnTxBufSize:  4096,
		ConnRxBufSize:  1024,
	})
	if err != nil {
		return nil, StatLISTEN
	}
	if err = listener.StartListening(port); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPortInUse, err)
	}
	return listener, nil
}

// JoinNetwork connects to the WiFi access point and configures the
// network stack via DHCP. If DHCP fails, the requested IP is used as
// a static address.
func JoinNetwork(dev Device, cfg NetConfig, logger *slog.Logger) (Session, error) {
	d, ok := dev.(*PicoWDevice)
	if !ok {
		return nil, StatDEV
	}
	if len(cfg.SSID) == 0 {
		logger.Error("ERROR: SSID and password must be provided")
		return nil, StatWIFI
	}
	stack, addr, err := setupWithDHCP(d.ref, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &picoSession{stack: stack, addr: addr}, nil
}

const mtu = cyw43439.MTU

// setupWithDHCP is adapted from github.com/soypat/cyw43439,
// file '/examples/common/common.go'.
func setupWithDHCP(dev *cyw43439.Device, cfg NetConfig, logger *slog.Logger) (*stacks.PortStack, netip.Addr, error) {
	var (
		err     error
		reqAddr netip.Addr
	)
	if cfg.RequestedIP != "" {
		if reqAddr, err = netip.ParseAddr(cfg.RequestedIP); err != nil {
			return nil, reqAddr, StatIP
		}
	}

	wificfg := cyw43439.DefaultWifiConfig()
	logger.Info("initializing pico W device...")
	devInitTime := time.Now()
	if err = dev.Init(wificfg); err != nil {
		return nil, reqAddr, StatWIFI
	}
	logger.Info("cyw43439:Init", slog.Duration("duration", time.Since(devInitTime)))

	logger.Info("Connecting to Wi-Fi", slog.String("ssid", cfg.SSID), slog.Int("passlen", len(cfg.Passwd)))
	attempts := max(cfg.Attempts, 1)
	for i := 0; i < attempts; i++ {
		if err = dev.JoinWPA2(cfg.SSID, cfg.Passwd); err == nil {
			break
		}
		logger.Warn("wifi join failed", slog.String("attempt", fmt.Sprintf("%d/%d", i+1, attempts)), slog.String("err", err.Error()))
		time.Sleep(cfg.Retry)
	}
	if err != nil {
		logger.Error("Wi-Fi failed!")
		return nil, reqAddr, StatWPA2
	}
	mac, _ := dev.HardwareAddr6()
	logger.Info("wifi join success!", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	stack := stacks.NewPortStack(stacks.PortStackConfig{
		MAC:             mac,
		MaxOpenPortsUDP: 1, // DHCP client
		MaxOpenPortsTCP: int(cfg.TCPPorts),
		MTU:             mtu,
		Logger:          logger,
	})
	dev.RecvEthHandle(stack.RecvEth)

	// Begin asynchronous packet handling.
	go nicLoop(dev, stack, logger)

	dhcpClient := stacks.NewDHCPClient(stack, dhcp.DefaultClientPort)
	err = dhcpClient.BeginRequest(stacks.DHCPRequestConfig{
		RequestedAddr: reqAddr,
		Xid:           uint32(time.Now().Nanosecond()),
		Hostname:      cfg.Hostname,
	})
	if err != nil {
		return stack, reqAddr, StatDHCP1
	}
	for i := 0; dhcpClient.State() != dhcp.StateBound; i++ {
		if i > 15 {
			if !reqAddr.IsValid() {
				return stack, reqAddr, StatDHCP2
			}
			logger.Info("DHCP did not complete, assigning static IP", slog.String("ip", cfg.RequestedIP))
			stack.SetAddr(reqAddr)
			return stack, reqAddr, nil
		}
		logger.Info("DHCP ongoing...")
		time.Sleep(time.Second / 2)
	}
	ip := dhcpClient.Offer()
	logger.Info("DHCP complete",
		slog.Uint64("cidrbits", uint64(dhcpClient.CIDRBits())),
		slog.String("ourIP", ip.String()),
		slog.String("gateway", dhcpClient.Gateway().String()),
		slog.String("router", dhcpClient.Router().String()),
		slog.Duration("lease", dhcpClient.IPLeaseTime()),
	)
	stack.SetAddr(ip) // It's important to set the IP address after DHCP completes.
	return stack, ip, nil
}

// nicLoop moves packets between the wireless chip and the stack.
func nicLoop(dev *cyw43439.Device, stack *stacks.PortStack, logger *slog.Logger) {
	// Maximum number of packets to queue before sending them.
	const (
		queueSize                = 3
		maxRetriesBeforeDropping = 3
	)
	var queue [queueSize][mtu]byte
	var lenBuf [queueSize]int
	var retries [queueSize]int
	markSent := func(i int) {
		lenBuf[i] = 0
		retries[i] = 0
	}
	for {
		gotPacket, err := dev.PollOne()
		if err != nil {
			logger.Debug("poll error", "error", err)
		}
		stallRx := !gotPacket

		// Queue packets to be sent.
		for i := range queue {
			if retries[i] != 0 {
				continue // Packet currently queued for retransmission.
			}
			lenBuf[i], err = stack.HandleEth(queue[i][:])
			if err != nil {
				logger.Debug("stack error", "n", lenBuf[i], "error", err)
				lenBuf[i] = 0
				continue
			}
			if lenBuf[i] == 0 {
				break
			}
		}
		if lenBuf == [queueSize]int{} {
			if stallRx {
				// Avoid busy waiting when both Rx and Tx stall.
				time.Sleep(51 * time.Millisecond)
			}
			continue
		}

		// Send queued packets.
		for i := range queue {
			n := lenBuf[i]
			if n <= 0 {
				continue
			}
			if err := dev.SendEth(queue[i][:n]); err != nil {
				// Queue packet for retransmission.
				retries[i]++
				if retries[i] > maxRetriesBeforeDropping {
					markSent(i)
					logger.Debug("dropped outgoing packet", "error", err)
				}
			} else {
				markSent(i)
			}
		}
	}
}

//----------------------------------------------------------------------

// NewLogger returns a logger writing to the USB serial console.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: level}))
}

// Prompt reads a line from the serial console (echoing input).
func Prompt(label string) string {
	io.WriteString(machine.Serial, label)
	var sb strings.Builder
	for {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		switch b {
		case '\r', '\n':
			io.WriteString(machine.Serial, "\r\n")
			return strings.TrimSpace(sb.String())
		default:
			sb.WriteByte(b)
			machine.Serial.WriteByte(b)
		}
	}
}
