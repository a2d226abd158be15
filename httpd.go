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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultPorts are tried in order for the HTTP server.
var DefaultPorts = []uint16{80, 8080, 8081}

// ParsePorts parses a comma-separated list of ports. An empty list
// returns DefaultPorts.
func ParsePorts(s string) ([]uint16, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultPorts, nil
	}
	var ports []uint16
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 16)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid port %q", f)
		}
		ports = append(ports, uint16(n))
	}
	return ports, nil
}

// maximum size of a request head we read
const maxRequest = 1024

// ListenFirst binds the first available port from the list. Ports that
// are in use are skipped; any other error is returned immediately. If
// no port is free, StatPORT is returned.
func ListenFirst(sess Session, ports []uint16, logger *slog.Logger) (net.Listener, uint16, error) {
	for _, port := range ports {
		lst, err := sess.Listen(port)
		if err == nil {
			return lst, port, nil
		}
		if !errors.Is(err, ErrPortInUse) {
			return nil, 0, fmt.Errorf("listen on port %d: %w", port, err)
		}
		logger.Warn("Port in use, trying next...", "port", port)
	}
	return nil, 0, StatPORT
}

// Server is the HTTP front end: it accepts one connection at a time,
// passes the parsed command to the handler and renders the result.
type Server struct {
	handler *Handler
	rec     Recorder
	logger  *slog.Logger

	timeout time.Duration // read deadline per connection
}

// NewServer for the given handler.
func NewServer(h *Handler, rec Recorder, logger *slog.Logger) *Server {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Server{
		handler: h,
		rec:     rec,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Serve requests from the listener until a stop command was handled
// or ctx is cancelled. The listener is closed on return.
func (srv *Server) Serve(ctx context.Context, lst net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		lst.Close()
	}()
	for {
		conn, err := lst.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			srv.logger.Error("accept failed", "error", err)
			continue
		}
		if srv.serveConn(conn) {
			srv.handler.Shutdown()
			return nil
		}
	}
}

// serveConn handles a single request. Returns true if a stop command
// was answered.
func (srv *Server) serveConn(conn net.Conn) (stop bool) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(srv.timeout))

	line, err := readRequest(conn)
	if err != nil {
		srv.logger.Debug("reading request failed", "error", err)
		srv.rec.Request("error")
		return false
	}
	cmd, err := ParseRequestLine(line)
	outcome := "ok"
	if err != nil {
		srv.logger.Debug("request partially ignored", "request", line, "error", err)
		outcome = "invalid"
	}
	rep := srv.handler.Handle(cmd)
	_ = conn.SetWriteDeadline(time.Now().Add(srv.timeout))
	if err = RenderPage(conn, rep); err != nil {
		srv.logger.Debug("writing response failed", "error", err)
		outcome = "error"
	}
	srv.rec.Request(outcome)
	return rep.Stopping
}

// readRequest returns the request line and consumes the header lines
// up to the empty line (or maxRequest bytes).
func readRequest(r io.Reader) (string, error) {
	rdr := bufio.NewReader(io.LimitReader(r, maxRequest))
	line, err := rdr.ReadString('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return "", err
	}
	for err == nil {
		var hdr string
		if hdr, err = rdr.ReadString('\n'); len(strings.TrimSpace(hdr)) == 0 {
			break
		}
	}
	return strings.TrimSpace(line), nil
}
