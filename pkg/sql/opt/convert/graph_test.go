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

package convert

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/stretchr/testify/require"
)

const (
	a physical.Convention = "A"
	b physical.Convention = "B"
	c physical.Convention = "C"
	d physical.Convention = "D"
	e physical.Convention = "E"
)

func TestGraphPath(t *testing.T) {
	g := NewGraph()
	// A -> B -> D and A -> C -> D are both shortest; B was added first.
	require.NoError(t, g.AddConversion(a, b))
	require.NoError(t, g.AddConversion(a, c))
	require.NoError(t, g.AddConversion(c, d))
	require.NoError(t, g.AddConversion(b, d))
	require.NoError(t, g.AddConversion(d, e))

	require.Equal(t, []physical.Trait{a, b, d, e}, g.Path(a, e))
	require.Equal(t, 3.0, g.Distance(a, e))
	require.Equal(t, []physical.Trait{c, d}, g.Path(c, d))
	require.Equal(t, []physical.Trait{a}, g.Path(a, a))
	require.Nil(t, g.Path(e, a))
	require.True(t, math.IsInf(g.Distance(e, a), 1))
	require.True(t, math.IsInf(g.Distance(a, physical.Convention("unknown")), 1))

	// A direct conversion added later shortens the chain.
	require.NoError(t, g.AddConversion(a, e))
	require.Equal(t, []physical.Trait{a, e}, g.Path(a, e))

	// Paths are stable across calls.
	for i := 0; i < 10; i++ {
		require.Equal(t, []physical.Trait{a, b, d}, g.Path(a, d))
	}
}

func TestGraphErrors(t *testing.T) {
	g := NewGraph()
	require.Error(t, g.AddConversion(a, a))
	require.NoError(t, g.AddConversion(a, b))
	require.NoError(t, g.AddConversion(a, b))
	require.Equal(t, [][2]physical.Trait{{a, b}}, g.Conversions())
}

func TestGraphChain(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddConversion(physical.None, a))
	require.NoError(t, g.AddConversion(a, b))

	from := physical.ConventionSet(physical.None)
	to := physical.ConventionSet(b)
	require.True(t, g.CanConvert(from, to))
	require.False(t, g.CanConvert(to, from))
	require.Equal(t, []physical.TraitSet{physical.ConventionSet(a), to}, g.Chain(from, to))
	require.Nil(t, g.Chain(to, from))
	require.Empty(t, g.Chain(to, to))
	require.NotNil(t, g.Chain(to, to))
}

// randomGraph builds a graph over n conventions from edge codes, where code
// k stands for the conversion from k/n to k%n.
func randomGraph(n int, codes []int) (*Graph, []physical.Trait, map[[2]physical.Trait]bool) {
	conventions := make([]physical.Trait, n)
	for i := range conventions {
		conventions[i] = physical.Convention(fmt.Sprintf("C%d", i))
	}
	g := NewGraph()
	direct := make(map[[2]physical.Trait]bool)
	for _, k := range codes {
		from, to := conventions[k/n], conventions[k%n]
		if from == to {
			continue
		}
		if err := g.AddConversion(from, to); err != nil {
			panic(err)
		}
		direct[[2]physical.Trait{from, to}] = true
	}
	return g, conventions, direct
}

func TestGraphProperties(t *testing.T) {
	const n = 6
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	edges := gen.SliceOf(gen.IntRange(0, n*n-1))

	properties.Property("paths are chains of direct conversions", prop.ForAll(
		func(codes []int) bool {
			g, conventions, direct := randomGraph(n, codes)
			for _, from := range conventions {
				for _, to := range conventions {
					p := g.Path(from, to)
					dist := g.Distance(from, to)
					if p == nil {
						if !math.IsInf(dist, 1) {
							return false
						}
						continue
					}
					if float64(len(p)-1) != dist || p[0] != from || p[len(p)-1] != to {
						return false
					}
					for i := 1; i < len(p); i++ {
						if !direct[[2]physical.Trait{p[i-1], p[i]}] {
							return false
						}
					}
				}
			}
			return true
		},
		edges,
	))

	properties.Property("distances obey the triangle inequality", prop.ForAll(
		func(codes []int) bool {
			g, conventions, _ := randomGraph(n, codes)
			for _, x := range conventions {
				for _, y := range conventions {
					for _, z := range conventions {
						if g.Distance(x, z) > g.Distance(x, y)+g.Distance(y, z) {
							return false
						}
					}
				}
			}
			return true
		},
		edges,
	))

	properties.Property("every recorded conversion is listed once", prop.ForAll(
		func(codes []int) bool {
			g, _, direct := randomGraph(n, codes)
			listed := g.Conversions()
			if len(listed) != len(direct) {
				return false
			}
			for _, conv := range listed {
				if !direct[conv] {
					return false
				}
			}
			return true
		},
		edges,
	))

	properties.TestingRun(t)
}
