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

package iter

import (
	"context"
	"testing"

	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/convert"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

// testCall converts an input by relabeling its traits, unless the input is
// listed in unconvertible.
type testCall struct {
	bindings      []memo.RelExpr
	unconvertible map[memo.RelExpr]bool
}

var _ rule.Call = &testCall{}

func (c *testCall) Context() context.Context             { return context.Background() }
func (c *testCall) Rule() rule.Rule                      { return nil }
func (c *testCall) Binding(nth int) memo.RelExpr         { return c.bindings[nth] }
func (c *testCall) Bindings() []memo.RelExpr             { return c.bindings }
func (c *testCall) TransformTo(e memo.RelExpr)           { panic("unexpected") }
func (c *testCall) Expand(e memo.RelExpr) []memo.RelExpr { return []memo.RelExpr{e} }
func (c *testCall) RowCount(e memo.RelExpr) float64      { return memo.TreeMetadata.RowCount(e) }

func (c *testCall) Convert(e memo.RelExpr, traits physical.TraitSet) memo.RelExpr {
	if c.unconvertible[e] {
		return nil
	}
	return e.WithTraits(traits)
}

func convertDigest(c *testCall, r *rule.ConverterRule, e memo.RelExpr) string {
	c.bindings = []memo.RelExpr{e}
	if res := r.Convert(c, e); res != nil {
		return memo.Digest(res)
	}
	return ""
}

func scan(name string, typ types.T) *memo.ScanExpr {
	return memo.NewScan(&memo.Table{Name: name, Columns: opt.RowType{{Name: "a", Type: typ}}, RowCount: 10})
}

func TestUnionToConcatenate(t *testing.T) {
	x := scan("x", types.Int)
	y := scan("y", types.Int.NotNull())
	c := &testCall{}

	all := memo.NewUnion([]memo.RelExpr{x, y}, true)
	require.Equal(t, "concatenate.ITERATOR[scan.ITERATOR(x),scan.ITERATOR(y)]",
		convertDigest(c, UnionToConcatenate, all))
	require.Equal(t, "", convertDigest(c, UnionToConcatenate, memo.NewUnion([]memo.RelExpr{x, y}, false)))
	require.Equal(t, "union.ITERATOR(distinct)[scan.ITERATOR(x),scan.ITERATOR(y)]",
		convertDigest(c, DistinctUnionToIterator, memo.NewUnion([]memo.RelExpr{x, y}, false)))
	require.Equal(t, "", convertDigest(c, DistinctUnionToIterator, all))

	// y is NOT NULL while the union is not.
	require.Equal(t, "", convertDigest(c, HomogeneousUnionToConcatenate, all))
	require.Equal(t, "concatenate.ITERATOR[scan.ITERATOR(x),scan.ITERATOR(x)]",
		convertDigest(c, HomogeneousUnionToConcatenate, memo.NewUnion([]memo.RelExpr{x, x}, true)))

	// An input that cannot be implemented declines the whole union.
	c.unconvertible = map[memo.RelExpr]bool{y: true}
	require.Equal(t, "", convertDigest(c, UnionToConcatenate, all))
}

func TestImplementRule(t *testing.T) {
	x := scan("x", types.Int)
	c := &testCall{}

	require.Equal(t, "scan.ITERATOR(x)", convertDigest(c, ImplementRule(opt.ScanOp), x))
	require.Equal(t, "filter.ITERATOR(true)[scan.ITERATOR(x)]",
		convertDigest(c, ImplementRule(opt.FilterOp), memo.NewFilter(x, opt.True)))
	require.Equal(t, "one-row.ITERATOR", convertDigest(c, OneRowToIterator, memo.NewOneRow()))

	// Already implemented expressions do not match.
	require.Equal(t, "", convertDigest(c, ImplementRule(opt.ScanOp), x.WithTraits(physical.ConventionSet(Iterator))))
	// Neither do other operators.
	require.Equal(t, "", convertDigest(c, ImplementRule(opt.FilterOp), x))

	names := make(map[string]bool)
	for _, r := range append(Rules(), ConversionRules()...) {
		require.False(t, names[r.Name()], "duplicate rule %s", r.Name())
		names[r.Name()] = true
	}
	require.True(t, names["Implement(table-modify)"])
}

func TestConversions(t *testing.T) {
	g := convert.NewGraph()
	require.NoError(t, DefaultConversions(g))

	it := physical.ConventionSet(Iterator)
	arr := physical.ConventionSet(Array)
	require.Equal(t, []physical.TraitSet{physical.ConventionSet(Collection), arr}, g.Chain(it, arr))
	require.False(t, g.CanConvert(arr, it))
	require.False(t, g.CanConvert(physical.Logical, it))

	x := scan("x", types.Int).WithTraits(it)
	c := &testCall{}
	rules := ConversionRules()
	require.Len(t, rules, 3)
	cr := rules[0].(*rule.ConverterRule)
	require.Equal(t, "Convert(ITERATOR,COLLECTION)", cr.Name())
	require.Equal(t, "converter.COLLECTION(from=ITERATOR)[scan.ITERATOR(x)]", convertDigest(c, cr, x))
	require.Equal(t, "", convertDigest(c, rules[2].(*rule.ConverterRule), x))
}
