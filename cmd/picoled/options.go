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
	"github.com/bfix/picoled/internal/config"
	"github.com/spf13/pflag"
)

// options are the command line flags. Flags that are set explicitly
// override the values of the config file.
type options struct {
	config string

	led       string
	thermal   string
	ports     string
	ninePort  uint16
	enabled   bool
	interval  float64
	unit      float64
	logLevel  string
	logFormat string
	metrics   string
}

func (o *options) register(fs *pflag.FlagSet) {
	def := config.Default()
	fs.StringVarP(&o.config, "config", "c", "/etc/picoled/picoled.toml", "path to configuration file")
	fs.StringVar(&o.led, "led", def.Device.LED, "sysfs LED directory (empty: no LED)")
	fs.StringVar(&o.thermal, "thermal", def.Device.Thermal, "thermal zone file in milli-Celsius")
	fs.StringVarP(&o.ports, "ports", "p", def.Network.Ports, "comma-separated HTTP ports tried in order")
	fs.Uint16Var(&o.ninePort, "ninep-port", def.Network.NinePPort, "9p status port (0 disables)")
	fs.BoolVar(&o.enabled, "enable", def.Blink.Enabled, "start with blinking enabled")
	fs.Float64Var(&o.interval, "interval", def.Blink.Interval, "initial blink half-period in seconds")
	fs.Float64Var(&o.unit, "unit", def.Morse.Unit, "Morse unit in seconds")
	fs.StringVar(&o.logLevel, "log-level", def.Logging.Level, "logging level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", def.Logging.Format, "logging format (text, json)")
	fs.StringVar(&o.metrics, "metrics", def.Metrics.Listen, "Prometheus listen address (empty disables)")
}

// load the config file and apply the flags that were set.
func (o *options) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(o.config)
	if err != nil {
		return nil, err
	}
	o.apply(fs, cfg)
	return cfg, cfg.Validate()
}

func (o *options) apply(fs *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("led", func() { cfg.Device.LED = o.led })
	set("thermal", func() { cfg.Device.Thermal = o.thermal })
	set("ports", func() { cfg.Network.Ports = o.ports })
	set("ninep-port", func() { cfg.Network.NinePPort = o.ninePort })
	set("enable", func() { cfg.Blink.Enabled = o.enabled })
	set("interval", func() { cfg.Blink.Interval = o.interval })
	set("unit", func() { cfg.Morse.Unit = o.unit })
	set("log-level", func() { cfg.Logging.Level = o.logLevel })
	set("log-format", func() { cfg.Logging.Format = o.logFormat })
	set("metrics", func() { cfg.Metrics.Listen = o.metrics })
}
