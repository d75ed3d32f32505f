// Copyright The Lowdown Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus counters and histograms describing
// fault injection and request handling, served over the admin listener's
// /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/criccomini/lowdown/internal/lifecycle"
)

const namespace = "lowdown"

// Metrics implements lifecycle.Recorder, translating lifecycle
// observations into Prometheus series.
type Metrics struct {
	requestsByState      *prometheus.CounterVec
	faultsFired          *prometheus.CounterVec
	oneOffsConsumedTotal prometheus.Counter
	requestDuration      prometheus.Histogram
}

// NewMetrics constructs a Metrics and registers its collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsByState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Count of requests reaching each lifecycle state.",
		}, []string{"state"}),
		faultsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_fired_total",
			Help:      "Count of fault injections that fired, by kind.",
		}, []string{"kind"}),
		oneOffsConsumedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "one_off_rules_consumed_total",
			Help:      "Count of one-off rules consumed by a matching request.",
		}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end duration of handling a proxied request.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.requestsByState, m.faultsFired, m.oneOffsConsumedTotal, m.requestDuration)
	return m
}

// ObserveState implements lifecycle.Recorder.
func (m *Metrics) ObserveState(s lifecycle.State) {
	m.requestsByState.WithLabelValues(string(s)).Inc()
}

// ObserveFaultFired implements lifecycle.Recorder.
func (m *Metrics) ObserveFaultFired(kind string) {
	m.faultsFired.WithLabelValues(kind).Inc()
}

// ObserveOneOffConsumed implements lifecycle.Recorder.
func (m *Metrics) ObserveOneOffConsumed() {
	m.oneOffsConsumedTotal.Inc()
}

// ObserveDuration implements lifecycle.Recorder.
func (m *Metrics) ObserveDuration(d time.Duration) {
	m.requestDuration.Observe(d.Seconds())
}
