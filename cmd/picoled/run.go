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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bfix/picoled"
	"github.com/bfix/picoled/internal/config"
	"github.com/bfix/picoled/internal/logging"
	"github.com/bfix/picoled/internal/metrics"
	"github.com/coreos/go-systemd/v22/daemon"
)

var _ picoled.Recorder = (*metrics.Recorder)(nil)

// run the controller until it is stopped by request or signal.
func run(ctx context.Context, cfg *config.Config, path string) error {
	log := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Journal: cfg.Logging.Journal,
	}, os.Stderr)
	slog.SetDefault(log)

	ports, err := picoled.ParsePorts(cfg.Network.Ports)
	if err != nil {
		return err
	}
	dev := picoled.NewLinuxDevice(cfg.Device.LED, cfg.Device.Thermal, log)
	rec := metrics.New(true)

	ctrl := picoled.NewController(dev, dev, picoled.Options{
		Unit:     config.Seconds(cfg.Morse.Unit),
		Ports:    ports,
		NinePort: cfg.Network.NinePPort,
		Recorder: rec,
		Logger:   log,
		Ready: func(port uint16) {
			if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
				log.Warn("sd_notify failed", "error", err)
			} else if ok {
				log.Debug("systemd notified", "port", port)
			}
		},
	})
	applyBlink(ctrl.State, cfg.Blink, log)
	rec.TrackState(func() (bool, time.Duration) {
		s := ctrl.State.Read()
		return s.Enabled, s.Interval
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           metricsMux(rec),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Metrics exporter running", "addr", cfg.Metrics.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics exporter failed", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	if _, err := os.Stat(path); err == nil {
		w := config.NewWatcher(path, 500*time.Millisecond, log)
		w.OnReload(func(c *config.Config) {
			applyBlink(ctrl.State, c.Blink, log)
		})
		if err := w.Start(); err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			defer w.Stop()
		}
	}

	netCfg := picoled.DefaultNetConfig()
	netCfg.Attempts = cfg.Network.Attempts
	netCfg.Retry = config.Seconds(cfg.Network.Retry)
	sess, err := picoled.JoinNetwork(dev, netCfg, log)
	if err != nil {
		log.Error("Could not connect to network.", "error", err)
		return err
	}
	err = ctrl.Run(ctx, sess)
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		return err
	}
	log.Info("Pico stopped.")
	return nil
}

// applyBlink sets the control state from the [blink] section.
func applyBlink(cs *picoled.ControlState, b config.Blink, log *slog.Logger) {
	cs.SetEnabled(b.Enabled)
	if err := cs.SetInterval(config.Seconds(b.Interval)); err != nil {
		log.Warn("blink interval ignored", "error", err)
	}
	s := cs.Read()
	log.Info("Blink settings applied", "enabled", s.Enabled, "delay", s.Interval)
}

func metricsMux(rec *metrics.Recorder) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	return mux
}
