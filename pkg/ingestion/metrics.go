// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion subsystem.
type metricsIngestion struct {
	once sync.Once

	// Runs
	runs       *prometheus.CounterVec
	superseded prometheus.Counter
	coalesced  prometheus.Counter

	// Stage output
	sanitized *prometheus.CounterVec
	compounds prometheus.Counter

	// Durations
	stageDuration *prometheus.HistogramVec
	runDuration   prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "docsync_runs_total", Help: "Pipeline runs by outcome and failing stage"}, []string{"outcome", "stage"})
		m.superseded = prometheus.NewCounter(prometheus.CounterOpts{Name: "docsync_runs_superseded_total", Help: "In-flight runs canceled by a newer push"})
		m.coalesced = prometheus.NewCounter(prometheus.CounterOpts{Name: "docsync_pushes_coalesced_total", Help: "Pending pushes replaced by a newer push for the same project"})

		m.sanitized = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "docsync_sanitized_entries_total", Help: "Entries removed by the sanitizer"}, []string{"pass"})
		m.compounds = prometheus.NewCounter(prometheus.CounterOpts{Name: "docsync_compounds_persisted_total", Help: "Compounds written by completed runs"})

		buckets := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
		m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "docsync_stage_seconds", Help: "Stage duration", Buckets: buckets}, []string{"stage"})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "docsync_run_seconds", Help: "Total run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.runs, m.superseded, m.coalesced,
			m.sanitized, m.compounds,
			m.stageDuration, m.runDuration,
		)
	})
}

// record helpers - used by the pipeline and supervisor
func recordStage(stage Stage, d time.Duration) {
	ingMetrics.init()
	ingMetrics.stageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func recordSanitized(pass string, n int) {
	ingMetrics.init()
	ingMetrics.sanitized.WithLabelValues(pass).Add(float64(n))
}

func recordCompounds(n int) { ingMetrics.init(); ingMetrics.compounds.Add(float64(n)) }
func recordSuperseded()     { ingMetrics.init(); ingMetrics.superseded.Inc() }
func recordCoalesced()      { ingMetrics.init(); ingMetrics.coalesced.Inc() }

func recordOutcome(o *Outcome) {
	ingMetrics.init()
	ingMetrics.runs.WithLabelValues(string(o.Status), string(o.Stage)).Inc()
	ingMetrics.runDuration.Observe(o.Elapsed.Seconds())
}
