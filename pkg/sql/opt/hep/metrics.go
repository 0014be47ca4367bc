// Copyright 2025 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package hep

import "github.com/prometheus/client_golang/prometheus"

// Metrics count what heuristic planners do. A Metrics may be shared by
// concurrent planners.
type Metrics struct {
	Programs  *prometheus.CounterVec
	RuleFires *prometheus.CounterVec
	Steps     prometheus.Counter
	Vertices  prometheus.Histogram
}

// NewMetrics returns metrics that are not registered anywhere yet.
func NewMetrics() *Metrics {
	return &Metrics{
		Programs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relopt",
			Subsystem: "hep",
			Name:      "programs_total",
			Help:      "Program applications by result: ok or internal_error.",
		}, []string{"result"}),
		RuleFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relopt",
			Subsystem: "hep",
			Name:      "rule_fires_total",
			Help:      "Payload replacements made by each rule.",
		}, []string{"rule"}),
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relopt",
			Subsystem: "hep",
			Name:      "steps_total",
			Help:      "Rule firings counted against the step budget.",
		}),
		Vertices: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "relopt",
			Subsystem: "hep",
			Name:      "vertices",
			Help:      "Vertices reachable from the root at the end of each program.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Register adds the metrics to r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Programs, m.RuleFires, m.Steps, m.Vertices} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
