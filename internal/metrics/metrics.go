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

// Package metrics provides Prometheus metrics for the LED controller.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "picoled"

// Recorder counts controller events in its own registry. It satisfies
// the picoled.Recorder interface.
type Recorder struct {
	reg *prometheus.Registry

	blinkCycles  prometheus.Counter
	playbacks    prometheus.Counter
	symbols      prometheus.Counter
	playDuration prometheus.Histogram
	requests     *prometheus.CounterVec
	actuatorWait prometheus.Histogram
}

// New creates a recorder with a fresh registry. Go runtime and process
// collectors are included if withRuntime is set.
func New(withRuntime bool) *Recorder {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		blinkCycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blink",
			Name:      "cycles_total",
			Help:      "Completed on/off blink cycles",
		}),
		playbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "morse",
			Name:      "playbacks_total",
			Help:      "Morse messages played",
		}),
		symbols: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "morse",
			Name:      "symbols_total",
			Help:      "Morse symbols played",
		}),
		playDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "morse",
			Name:      "playback_seconds",
			Help:      "Duration of Morse playbacks",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by outcome",
		}, []string{"outcome"}),
		actuatorWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "actuator",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for exclusive LED access",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 7),
		}),
	}
}

// BlinkCycle counts a completed blink cycle.
func (r *Recorder) BlinkCycle() {
	r.blinkCycles.Inc()
}

// Playback records a Morse playback of n symbols.
func (r *Recorder) Playback(n int, d time.Duration) {
	r.playbacks.Inc()
	r.symbols.Add(float64(n))
	r.playDuration.Observe(d.Seconds())
}

// Request counts an HTTP request with the given outcome.
func (r *Recorder) Request(outcome string) {
	r.requests.WithLabelValues(outcome).Inc()
}

// ActuatorWait records contention on the LED.
func (r *Recorder) ActuatorWait(d time.Duration) {
	r.actuatorWait.Observe(d.Seconds())
}

// TrackState exports the control state returned by read on every
// scrape.
func (r *Recorder) TrackState(read func() (enabled bool, interval time.Duration)) {
	r.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "blink",
			Name:      "enabled",
			Help:      "1 if blinking is enabled",
		}, func() float64 {
			if on, _ := read(); on {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "blink",
			Name:      "interval_seconds",
			Help:      "Current blink half-period",
		}, func() float64 {
			_, iv := read()
			return iv.Seconds()
		}),
	)
}

// Registry returns the registry of the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Handler returns the HTTP handler exposing the metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
