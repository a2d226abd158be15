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
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Error messages
var (
	errRequest = errors.New("malformed request line")
	errMethod  = errors.New("unsupported method")
)

// ValidationError reports a command field that was ignored.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Command parsed from a control request. Absent fields are nil/empty.
type Command struct {
	LED     *bool    // switch blinking on/off
	Delay   *float64 // blink interval in seconds
	Message string   // text for Morse playback
	Stop    bool     // terminate the controller
}

// Empty returns true if the command changes nothing.
func (c Command) Empty() bool {
	return c.LED == nil && c.Delay == nil && len(c.Message) == 0 && !c.Stop
}

// ParseRequestLine parses "GET /?key=value&... HTTP/1.x". A request
// that is not a GET or is malformed yields an empty command.
func ParseRequestLine(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "HTTP/") {
		return Command{}, errRequest
	}
	if parts[0] != "GET" {
		return Command{}, fmt.Errorf("%w: %s", errMethod, parts[0])
	}
	_, query, ok := strings.Cut(parts[1], "?")
	if !ok {
		return Command{}, nil
	}
	return ParseQuery(query)
}

// ParseQuery parses the control parameters of a query string. Unknown
// keys are ignored. Invalid values are skipped and reported with a
// *ValidationError; all valid fields are returned.
func ParseQuery(raw string) (cmd Command, err error) {
	var errs []error
	vals, perr := url.ParseQuery(raw)
	if perr != nil {
		if len(vals) == 0 {
			return cmd, perr
		}
		errs = append(errs, perr)
	}
	if v, ok := vals["led"]; ok {
		switch strings.ToLower(v[0]) {
		case "on":
			cmd.LED = ptr(true)
		case "off":
			cmd.LED = ptr(false)
		default:
			errs = append(errs, &ValidationError{Field: "led", Value: v[0], Reason: "expected on or off"})
		}
	}
	if v, ok := vals["delay"]; ok {
		d, ferr := strconv.ParseFloat(strings.TrimSpace(v[0]), 64)
		switch {
		case ferr != nil:
			errs = append(errs, &ValidationError{Field: "delay", Value: v[0], Reason: "not a number"})
		case math.IsNaN(d) || math.IsInf(d, 0):
			errs = append(errs, &ValidationError{Field: "delay", Value: v[0], Reason: "not finite"})
		default:
			cmd.Delay = &d
		}
	}
	if v, ok := vals["morse"]; ok {
		cmd.Message = strings.TrimSpace(v[0])
	}
	_, cmd.Stop = vals["stop"]
	return cmd, errors.Join(errs...)
}

func ptr[T any](v T) *T {
	return &v
}
