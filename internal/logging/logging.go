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

// Package logging sets up the slog logger of the host build: text or
// JSON on stderr, plus the systemd journal when one is available.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// Config of the logger.
type Config struct {
	Level   string `toml:"level"`   // debug, info, warn, error
	Format  string `toml:"format"`  // text, json
	Journal bool   `toml:"journal"` // log to the journal if available
}

// ParseLevel returns the slog level for a name; unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Journal detection, replaced in tests.
var journalEnabled = journal.Enabled

var stderrIsJournal = func() bool {
	ok, err := journal.StderrIsJournalStream()
	return ok && err == nil
}

// New creates a logger writing to the console w. With cfg.Journal set
// and a journal available, records are sent to the journal as well;
// the console handler is dropped only when w is stderr and stderr is
// already connected to the journal (a systemd service).
func New(cfg Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)
	if !cfg.Journal || !journalEnabled() {
		return slog.New(consoleHandler(cfg, w, level))
	}
	jh := NewJournalHandler(level)
	if w == io.Writer(os.Stderr) && stderrIsJournal() {
		return slog.New(jh)
	}
	return slog.New(NewMultiHandler(consoleHandler(cfg, w, level), jh))
}

func consoleHandler(cfg Config, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
