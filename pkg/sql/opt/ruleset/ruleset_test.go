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

package ruleset

import (
	"math"
	"testing"

	"github.com/relopt/relopt/pkg/sql/opt/iter"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	def := Default()
	all := All()
	for _, name := range def.Names() {
		_, ok := all.Lookup(name)
		require.True(t, ok, name)
	}
	_, ok := def.Lookup(iter.HomogeneousUnionToConcatenate.Name())
	require.False(t, ok)
	require.Len(t, all.Rules(), len(def.Rules())+4)
	require.NotEmpty(t, def.ConverterRules())
}

func TestSelect(t *testing.T) {
	r, err := Select("UnionToConcatenate", "CoerceInputs(union,names)")
	require.NoError(t, err)
	require.Equal(t, []string{"CoerceInputs(union,names)", "UnionToConcatenate"}, r.Names())

	_, err = Select("NoSuchRule")
	require.EqualError(t, err, `unknown rule "NoSuchRule"`)
}

func TestGraph(t *testing.T) {
	g, err := Graph()
	require.NoError(t, err)
	require.Len(t, g.Conversions(), 3)

	g, err = Graph([2]string{"ARRAY", "ITERATOR"})
	require.NoError(t, err)
	require.Equal(t, 1.0, g.Distance(iter.Array, iter.Iterator))
	require.True(t, math.IsInf(g.Distance(iter.Iterator, iter.Array), 1))

	_, err = Graph([2]string{"ARRAY", "ARRAY"})
	require.Error(t, err)
}

func TestParseConversion(t *testing.T) {
	c, err := ParseConversion("ITERATOR -> ARRAY")
	require.NoError(t, err)
	require.Equal(t, [2]string{"ITERATOR", "ARRAY"}, c)

	for _, s := range []string{"ITERATOR", "->ARRAY", "ITERATOR->"} {
		_, err := ParseConversion(s)
		require.Error(t, err, s)
	}
}
