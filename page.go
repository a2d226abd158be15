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
	"fmt"
	"io"
	"math"
	"strconv"
)

// HTTP response header sent before every page.
const respHeader = "HTTP/1.0 200 OK\r\nContent-type: text/html\r\nConnection: close\r\n\r\n"

const pageHead = `<!DOCTYPE html>
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pico W LED</title>
<style>
body { font-family: 'Segoe UI', Arial, sans-serif; background: #232946; color: #eebbc3; margin: 0; padding: 0; }
.container { max-width: 400px; margin: 40px auto; background: #121629; border-radius: 16px; box-shadow: 0 4px 24px #0008; padding: 32px; }
h2 { color: #fffffe; margin-top: 0; }
label { font-weight: bold; }
input, select { box-sizing: border-box; width: 100vw; max-width: 336px; border-radius: 6px; border: 1px solid #b8c1ec; padding: 6px; margin: 6px 0 12px 0; background: #232946; color: #fffffe; }
input[type=submit] { background: #eebbc3; color: #232946; font-weight: bold; border: none; cursor: pointer; }
input[type=submit]:hover { background: #fffffe; }
.status { background: #b8c1ec; color: #232946; border-radius: 8px; padding: 10px; margin-top: 18px; font-size: 1.1em; }
.temp { font-size: 1.2em; }
</style>
</head>
<body>
<div class="container">
`

// page body; verbs: on-selected, off-selected, delay, state, delay, temperature
const pageForm = `<h2>Pico W LED &amp; Temperature Control</h2>
<form>
  <label>LED State:</label>
  <select name="led">
    <option value="on" %s>ON</option>
    <option value="off" %s>OFF</option>
  </select><br>
  <label>Blink Delay (s):</label>
  <input type="number" step="0.1" min="0.1" name="delay" value="%s"><br>
  <input type="submit" value="Update">
  <label>Morse Text:</label>
  <input type="text" name="morse" placeholder="Type a name">
  <input type="submit" value="Send Morse">
  <input type="submit" name="stop" value="Stop">
</form>
<div class="status">
  <p>Current: <b>%s</b>, Delay: <b>%s</b>s</p>
  <p class="temp">Onboard Temperature: <b>%s</b></p>
</div>
`

const pageTail = `</div>
</body>
</html>
`

// RenderPage writes the HTTP response with the control page for the
// given status. After a stop request only a short notice is written.
func RenderPage(w io.Writer, rep Report) error {
	if rep.Stopping {
		_, err := io.WriteString(w, respHeader+"<html><body><h2>Pico stopped.</h2></body></html>\n")
		return err
	}
	onSel, offSel, state := "", "selected", "OFF"
	if rep.Enabled {
		onSel, offSel, state = "selected", "", "ON"
	}
	delay := strconv.FormatFloat(rep.Interval.Seconds(), 'f', -1, 64)
	temp := "n/a"
	if !math.IsNaN(rep.Celsius) {
		temp = fmt.Sprintf("%.2f°C", rep.Celsius)
	}
	if _, err := io.WriteString(w, respHeader+pageHead); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, pageForm, onSel, offSel, delay, state, delay, temp); err != nil {
		return err
	}
	_, err := io.WriteString(w, pageTail)
	return err
}
