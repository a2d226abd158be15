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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Version of the controller
const Version = "0.3.0"

// Options for the controller.
type Options struct {
	Unit     time.Duration // Morse unit (DefaultUnit if zero)
	Ports    []uint16      // HTTP candidate ports (DefaultPorts if empty)
	NinePort uint16        // 9p status port; 0 disables the namespace
	Recorder Recorder      // metrics hook (may be nil)
	Logger   *slog.Logger  // logger (slog.Default() if nil)

	// Ready is called once the HTTP server is bound (may be nil).
	Ready func(port uint16)
}

// Controller wires state, player, blinker and request handling for a
// device.
type Controller struct {
	State   *ControlState
	Player  *Player
	Temp    *TempSource
	Handler *Handler
	Blinker *Blinker

	opts   Options
	cancel context.CancelCauseFunc
}

// errStopped is the cancel cause after a stop request.
var errStopped = errors.New("stopped by request")

// NewController for the given LED device and thermometer (may be nil).
func NewController(dev Device, therm Thermometer, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	if len(opts.Ports) == 0 {
		opts.Ports = DefaultPorts
	}
	c := &Controller{
		State: NewControlState(),
		Temp:  NewTempSource(therm),
		opts:  opts,
	}
	c.Player = NewPlayer(dev, opts.Recorder)
	c.Handler = NewHandler(c.State, c.Player, c.Temp, opts.Unit, c.stop, opts.Recorder, opts.Logger)
	c.Blinker = NewBlinker(c.State, c.Player, c.Temp, opts.Recorder, opts.Logger)
	return c
}

// stop is called by the handler after answering a stop request.
func (c *Controller) stop() {
	if c.cancel != nil {
		c.cancel(errStopped)
	}
}

// Run the controller on the network session until ctx is cancelled or
// a stop request was served. Fails with StatPORT if no HTTP port could
// be bound.
func (c *Controller) Run(ctx context.Context, sess Session) error {
	log := c.opts.Logger
	var ns *Namespace
	if c.opts.NinePort != 0 {
		var err error
		if ns, err = StatusNamespace(c.State, c.Handler, c.Temp); err != nil {
			return err
		}
	}
	lst, port, err := ListenFirst(sess, c.opts.Ports, log)
	if err != nil {
		log.Error("Error: no port available for the web server", "ports", c.opts.Ports, "error", err)
		return err
	}
	log.Info("Web server running!", "url", fmt.Sprintf("http://%s:%d", sess.Addr(), port))
	if c.opts.Ready != nil {
		c.opts.Ready(port)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	c.cancel = cancel
	g, ctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		c.Blinker.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return NewServer(c.Handler, c.opts.Recorder, log).Serve(ctx, lst)
	})
	if ns != nil {
		nlst, err := sess.Listen(c.opts.NinePort)
		if err != nil {
			log.Warn("9p namespace disabled", "port", c.opts.NinePort, "error", err)
		} else {
			log.Info("9p namespace", "addr", fmt.Sprintf("tcp!%s!%d", sess.Addr(), c.opts.NinePort))
			g.Go(func() error {
				<-ctx.Done()
				nlst.Close()
				return nil
			})
			g.Go(func() error {
				if err := ns.Serve(nlst, log); err != nil && ctx.Err() == nil {
					log.Warn("9p namespace failed", "error", err)
				}
				return nil
			})
		}
	}
	err = g.Wait()
	if errors.Is(context.Cause(runCtx), errStopped) {
		log.Info("Stopped by web request")
	}
	return err
}
