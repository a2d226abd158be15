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

// Package config holds the TOML configuration of the host controller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config of the host controller. Durations are given in seconds.
type Config struct {
	Device  Device  `toml:"device"`
	Network Network `toml:"network"`
	Blink   Blink   `toml:"blink"`
	Morse   Morse   `toml:"morse"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// Device selects the LED and thermal zone of a Linux board.
type Device struct {
	LED     string `toml:"led"`     // sysfs LED directory
	Thermal string `toml:"thermal"` // thermal zone file (milli-Celsius)
}

// Network settings.
type Network struct {
	Attempts  int     `toml:"attempts"`
	Retry     float64 `toml:"retry"`
	Ports     string  `toml:"ports"`      // comma-separated HTTP ports
	NinePPort uint16  `toml:"ninep_port"` // 0 disables the 9p namespace
}

// Blink is the initial control state; it is re-applied on reload.
type Blink struct {
	Enabled  bool    `toml:"enabled"`
	Interval float64 `toml:"interval"`
}

// Morse timing.
type Morse struct {
	Unit float64 `toml:"unit"`
}

// Logging settings.
type Logging struct {
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Journal bool   `toml:"journal"`
}

// Metrics settings. An empty listen address disables the exporter.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Network: Network{
			Attempts:  20,
			Retry:     1,
			Ports:     "80,8080,8081",
			NinePPort: 564,
		},
		Blink: Blink{
			Enabled:  false,
			Interval: 1,
		},
		Morse: Morse{
			Unit: 0.2,
		},
		Logging: Logging{
			Level:   "info",
			Format:  "text",
			Journal: true,
		},
	}
}

// Load reads the configuration file at path over the defaults. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err = toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Network.Attempts < 1 {
		errs = append(errs, fmt.Errorf("network.attempts must be positive, got %d", c.Network.Attempts))
	}
	if c.Network.Retry < 0 {
		errs = append(errs, fmt.Errorf("network.retry must not be negative, got %g", c.Network.Retry))
	}
	if c.Blink.Interval <= 0 {
		errs = append(errs, fmt.Errorf("blink.interval must be positive, got %g", c.Blink.Interval))
	}
	if c.Morse.Unit <= 0 {
		errs = append(errs, fmt.Errorf("morse.unit must be positive, got %g", c.Morse.Unit))
	}
	return errors.Join(errs...)
}

// Seconds converts a duration given in seconds.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
