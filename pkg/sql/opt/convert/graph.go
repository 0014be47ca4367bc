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

// Package convert holds the graph of trait conversions the optimizer knows
// how to perform, and finds the shortest chain of conversions between two
// trait sets.
package convert

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Graph is a directed graph per trait dimension whose edges are the direct
// conversions between two traits. Shortest paths are computed once, the
// first time they are needed after the graph changed. A Graph must not be
// modified while it is used by an optimization; after that it can be shared
// by concurrent ones.
type Graph struct {
	dims map[*physical.TraitDef]*dimGraph
}

// dimGraph is the conversion graph of one trait dimension.
type dimGraph struct {
	g      *simple.DirectedGraph
	ids    map[physical.Trait]int64
	traits []physical.Trait
	// out lists the successors of each node in the order the conversions were
	// added, which is how ties between shortest paths are broken.
	out   map[int64][]int64
	paths *path.AllShortest
}

// NewGraph returns an empty conversion graph.
func NewGraph() *Graph {
	return &Graph{dims: make(map[*physical.TraitDef]*dimGraph)}
}

// AddConversion records that expressions providing from can be converted
// directly into expressions providing to.
func (g *Graph) AddConversion(from, to physical.Trait) error {
	if from.Def() != to.Def() {
		return errors.Newf("cannot convert between dimensions %s and %s", from.Def(), to.Def())
	}
	if from == to {
		return errors.Newf("conversion from %s to itself", from)
	}
	d := g.dim(from.Def())
	u, v := d.node(from), d.node(to)
	if d.g.HasEdgeFromTo(u, v) {
		return nil
	}
	d.g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
	d.out[u] = append(d.out[u], v)
	d.paths = nil
	return nil
}

func (g *Graph) dim(def *physical.TraitDef) *dimGraph {
	d, ok := g.dims[def]
	if !ok {
		d = &dimGraph{
			g:   simple.NewDirectedGraph(),
			ids: make(map[physical.Trait]int64),
			out: make(map[int64][]int64),
		}
		g.dims[def] = d
	}
	return d
}

func (d *dimGraph) node(t physical.Trait) int64 {
	id, ok := d.ids[t]
	if !ok {
		id = int64(len(d.traits))
		d.ids[t] = id
		d.traits = append(d.traits, t)
		d.g.AddNode(simple.Node(id))
	}
	return id
}

func (d *dimGraph) shortest() *path.AllShortest {
	if d.paths == nil {
		// Every edge costs 1, so there are no negative cycles.
		paths, _ := path.FloydWarshall(d.g)
		d.paths = &paths
	}
	return d.paths
}

// distance returns the length of the shortest conversion chain from one
// trait to another, or +Inf.
func (d *dimGraph) distance(from, to physical.Trait) float64 {
	if from == to {
		return 0
	}
	u, ok := d.ids[from]
	if !ok {
		return math.Inf(1)
	}
	v, ok := d.ids[to]
	if !ok {
		return math.Inf(1)
	}
	return d.shortest().Weight(u, v)
}

// chain returns the traits of the shortest path, including both ends. Among
// paths of the same length, the one that follows the earliest-added
// conversions is chosen.
func (d *dimGraph) chain(from, to physical.Trait) []physical.Trait {
	dist := d.distance(from, to)
	if math.IsInf(dist, 1) {
		return nil
	}
	paths := d.shortest()
	v := d.ids[to]
	res := []physical.Trait{from}
	for cur := from; cur != to; {
		u := d.ids[cur]
		remaining := paths.Weight(u, v)
		next := int64(-1)
		for _, w := range d.out[u] {
			if 1+paths.Weight(w, v) == remaining {
				next = w
				break
			}
		}
		if next < 0 {
			panic(errors.AssertionFailedf("no successor of %s on a shortest path to %s", cur, to))
		}
		cur = d.traits[next]
		res = append(res, cur)
	}
	return res
}

// Distance returns the length of the shortest chain of conversions from one
// trait to another of the same dimension: 0 if they are the same, +Inf if
// there is none.
func (g *Graph) Distance(from, to physical.Trait) float64 {
	if from == to {
		return 0
	}
	d, ok := g.dims[from.Def()]
	if !ok {
		return math.Inf(1)
	}
	return d.distance(from, to)
}

// Path returns the shortest chain of traits from one trait to another,
// including both ends, or nil if there is none.
func (g *Graph) Path(from, to physical.Trait) []physical.Trait {
	if from == to {
		return []physical.Trait{from}
	}
	d, ok := g.dims[from.Def()]
	if !ok {
		return nil
	}
	return d.chain(from, to)
}

// CanConvert returns true if every trait of from can be converted into the
// corresponding trait of to.
func (g *Graph) CanConvert(from, to physical.TraitSet) bool {
	for _, def := range from.Diff(to) {
		if math.IsInf(g.Distance(from.Get(def), to.Get(def)), 1) {
			return false
		}
	}
	return true
}

// Chain returns the sequence of trait sets a conversion from one trait set
// to another goes through, excluding from and including to. Dimensions are
// converted one after the other in registration order. It returns nil if
// some dimension cannot be converted, and an empty chain if the sets are the
// same.
func (g *Graph) Chain(from, to physical.TraitSet) []physical.TraitSet {
	res := []physical.TraitSet{}
	cur := from
	for _, def := range from.Diff(to) {
		p := g.Path(from.Get(def), to.Get(def))
		if p == nil {
			return nil
		}
		for _, t := range p[1:] {
			cur = cur.Replace(t)
			res = append(res, cur)
		}
	}
	return res
}

// Conversions returns every direct conversion in the graph, grouped by
// dimension and then by source trait.
func (g *Graph) Conversions() [][2]physical.Trait {
	var res [][2]physical.Trait
	for _, def := range physical.Defs() {
		d, ok := g.dims[def]
		if !ok {
			continue
		}
		for u := range d.traits {
			for _, v := range d.out[int64(u)] {
				res = append(res, [2]physical.Trait{d.traits[u], d.traits[v]})
			}
		}
	}
	return res
}
