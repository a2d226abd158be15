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
	"fmt"
	"strings"
	"time"

	"github.com/bfix/picoled"
	"github.com/spf13/cobra"
)

// newEncodeCmd prints the Morse form of a text without touching the LED.
func newEncodeCmd() *cobra.Command {
	var unit float64
	cmd := &cobra.Command{
		Use:   "encode <text>...",
		Short: "Print the Morse code and playback time of a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if unit <= 0 {
				return fmt.Errorf("unit must be positive, got %g", unit)
			}
			seq := picoled.Encode(strings.Join(args, " "))
			d := time.Duration(unit * float64(time.Second))
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, picoled.Format(seq))
			fmt.Fprintf(out, "%s (%d symbols, %s)\n", picoled.Decode(seq), len(seq), seq.Duration(d))
			return nil
		},
	}
	cmd.Flags().Float64VarP(&unit, "unit", "u", picoled.DefaultUnit.Seconds(), "Morse unit in seconds")
	return cmd
}
