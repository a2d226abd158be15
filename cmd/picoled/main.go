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

// Command picoled runs the LED controller on a Linux host or board.
package main

import (
	"os"

	"github.com/bfix/picoled"
	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	root.AddCommand(newEncodeCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd returns the command running the controller.
func newRootCmd() *cobra.Command {
	opts := new(options)
	cmd := &cobra.Command{
		Use:          "picoled",
		Short:        "Web-controlled LED blinker with Morse playback",
		Version:      picoled.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, opts.config)
		},
	}
	opts.register(cmd.Flags())
	return cmd
}
