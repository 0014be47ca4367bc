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

package xform

import "github.com/prometheus/client_golang/prometheus"

// Metrics count what cost-based optimizations do. A Metrics may be shared by
// concurrent optimizations.
type Metrics struct {
	Optimizations *prometheus.CounterVec
	RuleAttempts  *prometheus.CounterVec
	RuleFires     *prometheus.CounterVec
	Merges        prometheus.Counter
	Steps         prometheus.Counter
	MemoMembers   prometheus.Histogram
}

// NewMetrics returns metrics that are not registered anywhere yet.
func NewMetrics() *Metrics {
	return &Metrics{
		Optimizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relopt",
			Subsystem: "xform",
			Name:      "optimizations_total",
			Help:      "Optimizations by result: ok, no_plan or internal_error.",
		}, []string{"result"}),
		RuleAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relopt",
			Subsystem: "xform",
			Name:      "rule_attempts_total",
			Help:      "Bindings offered to each rule.",
		}, []string{"rule"}),
		RuleFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relopt",
			Subsystem: "xform",
			Name:      "rule_fires_total",
			Help:      "Bindings for which each rule proposed an expression.",
		}, []string{"rule"}),
		Merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relopt",
			Subsystem: "xform",
			Name:      "set_merges_total",
			Help:      "Equivalence sets merged into another set.",
		}),
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relopt",
			Subsystem: "xform",
			Name:      "steps_total",
			Help:      "Rule firings counted against the step budget.",
		}),
		MemoMembers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "relopt",
			Subsystem: "xform",
			Name:      "memo_members",
			Help:      "Live memo members at the end of each optimization.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// Register adds the metrics to r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.Optimizations, m.RuleAttempts, m.RuleFires, m.Merges, m.Steps, m.MemoMembers,
	} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
