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
)

// errReadOnly is returned for writes to status files.
var errReadOnly = errors.New("write prohibited")

// File interface for file handler implementations:
// The interface methods are called by the 9p protocol handler on demand.
// The implementation is free to handle the read/write calls according
// to its own logic.
type File interface {
	Read() ([]byte, error)
	Write([]byte) error
}

//----------------------------------------------------------------------

// ReadOnlyFile rejects all writes.
type ReadOnlyFile struct{}

// Write to file is rejected
func (f *ReadOnlyFile) Write([]byte) error {
	return errReadOnly
}

//----------------------------------------------------------------------

// TextFile with (small) static text content.
type TextFile struct {
	ReadOnlyFile
	body string
}

// NewTextFile with given text content.
func NewTextFile(content string) *TextFile {
	return &TextFile{
		body: content,
	}
}

// Read implementation: return file content.
func (f *TextFile) Read() ([]byte, error) {
	return []byte(f.body), nil
}

//----------------------------------------------------------------------

// FuncFile content is returned by a function.
type FuncFile struct {
	ReadOnlyFile
	fcn func() ([]byte, error)
}

// NewFuncFile with specified function.
func NewFuncFile(fcn func() ([]byte, error)) *FuncFile {
	return &FuncFile{
		fcn: fcn,
	}
}

// Read implementation: return file content.
func (f *FuncFile) Read() ([]byte, error) {
	return f.fcn()
}

//----------------------------------------------------------------------

// StatusNamespace builds the read-only status tree of the controller:
//
//	/led         "on" or "off"
//	/delay       blink interval in seconds
//	/temp        temperature in Celsius or "n/a"
//	/version     controller version
//	/morse/last  last played message
//	/morse/code  last played message in dots and dashes
func StatusNamespace(state *ControlState, h *Handler, temp *TempSource) (*Namespace, error) {
	ns := NewNamespace("pico", "pico")
	line := func(format string, args ...any) ([]byte, error) {
		return []byte(fmt.Sprintf(format+"\n", args...)), nil
	}
	files := []struct {
		path string
		impl File
	}{
		{"/version", NewTextFile(Version + "\n")},
		{"/led", NewFuncFile(func() ([]byte, error) {
			if state.Read().Enabled {
				return line("on")
			}
			return line("off")
		})},
		{"/delay", NewFuncFile(func() ([]byte, error) {
			return line("%g", state.Read().Interval.Seconds())
		})},
		{"/temp", NewFuncFile(func() ([]byte, error) {
			c := temp.Celsius()
			if math.IsNaN(c) {
				return line("n/a")
			}
			return line("%.2f", c)
		})},
	}
	for _, f := range files {
		if err := ns.NewFile(f.path, 0444, f.impl); err != nil {
			return nil, err
		}
	}
	if err := ns.NewDir("/morse", 0555); err != nil {
		return nil, err
	}
	if err := ns.NewFile("/morse/last", 0444, NewFuncFile(func() ([]byte, error) {
		return line("%s", h.LastMessage())
	})); err != nil {
		return nil, err
	}
	err := ns.NewFile("/morse/code", 0444, NewFuncFile(func() ([]byte, error) {
		return line("%s", Format(Encode(h.LastMessage())))
	}))
	return ns, err
}
