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

package rule

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Stats counts what happened to one rule during an optimization.
type Stats struct {
	// Attempts is the number of bindings offered to the rule.
	Attempts int
	// Fires is the number of bindings for which the rule proposed an
	// expression.
	Fires int
	// Declines is the number of bindings the rule did nothing for.
	Declines int
}

// StatsCollector accumulates per-rule statistics in first-seen order.
type StatsCollector struct {
	order  []string
	byRule map[string]*Stats
}

func (c *StatsCollector) get(name string) *Stats {
	if c.byRule == nil {
		c.byRule = make(map[string]*Stats)
	}
	s, ok := c.byRule[name]
	if !ok {
		s = &Stats{}
		c.byRule[name] = s
		c.order = append(c.order, name)
	}
	return s
}

// Record adds the outcome of one attempt of the named rule.
func (c *StatsCollector) Record(name string, fired bool) {
	s := c.get(name)
	s.Attempts++
	if fired {
		s.Fires++
	} else {
		s.Declines++
	}
}

// Names returns the rules with statistics in the order they were first seen.
func (c *StatsCollector) Names() []string { return c.order }

// Get returns the statistics of the named rule.
func (c *StatsCollector) Get(name string) Stats {
	if s, ok := c.byRule[name]; ok {
		return *s
	}
	return Stats{}
}

// Total returns the sum of all statistics.
func (c *StatsCollector) Total() Stats {
	var t Stats
	for _, s := range c.byRule {
		t.Attempts += s.Attempts
		t.Fires += s.Fires
		t.Declines += s.Declines
	}
	return t
}

// WriteTable renders the statistics of each rule, in the order the rules
// were first offered a binding, followed by their total.
func (c *StatsCollector) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"rule", "attempts", "fires", "declines"})
	row := func(name string, s Stats) []string {
		return []string{
			name, strconv.Itoa(s.Attempts), strconv.Itoa(s.Fires), strconv.Itoa(s.Declines),
		}
	}
	for _, name := range c.order {
		table.Append(row(name, c.Get(name)))
	}
	table.SetFooter(row("total", c.Total()))
	table.Render()
}
