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

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/iter"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/norm"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func table(name string, colTypes ...types.T) *memo.ScanExpr {
	cols := make(opt.RowType, len(colTypes))
	for i, typ := range colTypes {
		cols[i] = opt.Column{Name: string(rune('a' + i)), Type: typ}
	}
	return memo.NewScan(&memo.Table{Name: name, Columns: cols, RowCount: 100})
}

func filters(input memo.RelExpr, n int) memo.RelExpr {
	for i := 0; i < n; i++ {
		input = memo.NewFilter(input, opt.True)
	}
	return input
}

func countOp(e memo.RelExpr, op opt.Operator) int {
	n := 0
	if e.Op() == op {
		n++
	}
	for i := 0; i < e.ChildCount(); i++ {
		n += countOp(e.Child(i), op)
	}
	return n
}

func TestUnionEliminator(t *testing.T) {
	x := table("x", types.Int)
	p := New(NewProgram(norm.UnionEliminator))
	res, err := p.ApplyProgram(context.Background(), memo.NewUnion([]memo.RelExpr{x}, true))
	require.NoError(t, err)
	require.Equal(t, "scan.NONE(x)", memo.Digest(res))
	require.Equal(t, 1, p.Steps())
	require.Equal(t, 1, p.RuleStats().Get(norm.UnionEliminator.Name()).Fires)
}

func TestMatchOrder(t *testing.T) {
	var visited []string
	recorder := rule.New("Recorder", rule.Any(), func(call rule.Call) {
		visited = append(visited, call.Binding(0).Op().String())
	})
	e := memo.NewFilter(memo.NewIdentityProject(table("x", types.Int), []int{0}), opt.True)

	for _, tc := range []struct {
		order MatchOrder
		want  []string
	}{
		{TopDown, []string{"filter", "project", "scan"}},
		{BottomUp, []string{"scan", "project", "filter"}},
	} {
		t.Run(tc.order.String(), func(t *testing.T) {
			visited = nil
			prog := (&Program{}).Add(Instruction{Rules: []rule.Rule{recorder}, MatchOrder: tc.order})
			res, err := New(prog).ApplyProgram(context.Background(), e)
			require.NoError(t, err)
			require.Equal(t, tc.want, visited)
			require.Equal(t, memo.Digest(e), memo.Digest(res))
		})
	}
}

func TestMatchOrderFromString(t *testing.T) {
	for s, want := range map[string]MatchOrder{"": TopDown, "top-down": TopDown, "bottom-up": BottomUp} {
		got, err := MatchOrderFromString(s)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := MatchOrderFromString("sideways")
	require.Error(t, err)
}

func TestMatchLimit(t *testing.T) {
	x := table("x", types.Int)
	for _, tc := range []struct {
		limit   int
		filters int
	}{
		{limit: 0, filters: 0},
		{limit: 1, filters: 2},
		{limit: 2, filters: 1},
	} {
		prog := (&Program{}).Add(Instruction{
			Rules:      []rule.Rule{norm.EliminateTrueFilter},
			MatchLimit: tc.limit,
		})
		res, err := New(prog).ApplyProgram(context.Background(), filters(x, 3))
		require.NoError(t, err)
		require.Equal(t, tc.filters, countOp(res, opt.FilterOp), "limit %d", tc.limit)
	}
}

func TestInstructionsRunInOrder(t *testing.T) {
	x := table("x", types.Int)
	y := table("y", types.Int)
	prog := NewProgram(norm.Rules()...).Add(Instruction{
		Rules: append(iter.Rules(), iter.ConversionRules()...),
	})
	e := memo.NewUnion([]memo.RelExpr{filters(x, 1), y}, true)
	p := New(prog)
	res, err := p.ApplyProgram(context.Background(), e)
	require.NoError(t, err)
	require.Equal(t, "concatenate.ITERATOR[scan.ITERATOR(x),scan.ITERATOR(y)]", memo.Digest(res))
	require.NotPanics(t, func() { memo.CheckExpr(res) })
}

func TestBottomUpFixPoint(t *testing.T) {
	// Once the inner filter is gone, the outer one holds the expression the
	// inner one held before and must still be offered to the rule.
	x := table("x", types.Int)
	prog := (&Program{}).Add(Instruction{
		Rules:      []rule.Rule{norm.EliminateTrueFilter},
		MatchOrder: BottomUp,
	})
	p := New(prog)
	res, err := p.ApplyProgram(context.Background(), filters(x, 3))
	require.NoError(t, err)
	require.Equal(t, "scan.NONE(x)", memo.Digest(res))
	require.Equal(t, 3, p.RuleStats().Get(norm.EliminateTrueFilter.Name()).Fires)
}

func TestConverterRules(t *testing.T) {
	x := table("x", types.Int)
	prog := NewProgram(append([]rule.Rule{iter.ImplementRule(opt.ScanOp)}, iter.ConversionRules()...)...)
	res, err := New(prog).ApplyProgram(context.Background(), x)
	require.NoError(t, err)
	require.Equal(t, "scan.ITERATOR(x)", memo.Digest(res))
}

func TestRuleWrappingItsBinding(t *testing.T) {
	collection := physical.ConventionSet(iter.Collection)
	for _, tc := range []struct {
		name string
		wrap func(call rule.Call) memo.RelExpr
	}{
		{
			name: "by value",
			wrap: func(call rule.Call) memo.RelExpr {
				return memo.NewConverter(call.Binding(0), iter.Collection)
			},
		},
		{
			name: "by conversion",
			wrap: func(call rule.Call) memo.RelExpr {
				return call.Convert(call.Binding(0), collection)
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := false
			wrap := rule.New("WrapScan", rule.Op(opt.ScanOp), func(call rule.Call) {
				if wrapped {
					return
				}
				if e := tc.wrap(call); e != nil {
					wrapped = true
					call.TransformTo(e)
				}
			})
			prog := NewProgram(wrap, iter.ConversionRules()[0])
			it := physical.ConventionSet(iter.Iterator)
			e := memo.NewFilter(table("x", types.Int).WithTraits(it), opt.True).WithTraits(it)
			res, err := New(prog).ApplyProgram(context.Background(), e)
			require.NoError(t, err)
			require.True(t, wrapped)
			require.Equal(t,
				"filter.ITERATOR(true)[converter.COLLECTION(from=ITERATOR)[scan.ITERATOR(x)]]",
				memo.Digest(res))
			require.NotPanics(t, func() { memo.CheckExpr(res) })
		})
	}
}

func TestDeduplication(t *testing.T) {
	x := table("x", types.Int)
	p := New(NewProgram())
	res, err := p.ApplyProgram(context.Background(),
		memo.NewUnion([]memo.RelExpr{x, table("x", types.Int)}, true))
	require.NoError(t, err)
	require.Len(t, p.index, 2)
	require.Equal(t, "union.NONE(all)[scan.NONE(x),scan.NONE(x)]", memo.Digest(res))

	// Removing the filter makes both inputs the same vertex.
	p = New(NewProgram(norm.EliminateTrueFilter))
	_, err = p.ApplyProgram(context.Background(), memo.NewUnion([]memo.RelExpr{x, filters(x, 1)}, true))
	require.NoError(t, err)
	require.Len(t, p.index, 2)
	require.Contains(t, p.String(), "#1 scan.NONE x")
}

func TestString(t *testing.T) {
	p := New(NewProgram())
	require.Equal(t, "hep\n", p.String())
	_, err := p.ApplyProgram(context.Background(), filters(table("x", types.Int), 1))
	require.NoError(t, err)
	require.Equal(t, "hep\n└── #2 filter.NONE true\n    └── #1 scan.NONE x\n", p.String())
}

func TestInvariantViolations(t *testing.T) {
	x := table("x", types.Int)
	y := table("y", types.String)

	var p *Planner
	for _, tc := range []struct {
		name string
		rule rule.Rule
	}{
		{
			name: "row type",
			rule: rule.New("ChangeRowType", rule.Op(opt.ScanOp), func(call rule.Call) {
				call.TransformTo(y)
			}),
		},
		{
			name: "transform twice",
			rule: rule.New("TransformTwice", rule.Op(opt.ScanOp), func(call rule.Call) {
				call.TransformTo(table("z", types.Int))
				call.TransformTo(table("w", types.Int))
			}),
		},
		{
			name: "cycle",
			rule: rule.New("FilterAboveParent", rule.Op(opt.ScanOp), func(call rule.Call) {
				parent := p.canonical(p.root)
				call.TransformTo(memo.NewFilter(parent.ph, opt.True))
			}),
		},
		{
			name: "mutation",
			rule: rule.New("MutateScan", rule.Op(opt.ScanOp), func(call rule.Call) {
				call.Binding(0).(*memo.ScanExpr).Table.Name = "mutated"
			}),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p = New(NewProgram(tc.rule))
			e := filters(memo.NewScan(&memo.Table{Name: "x", Columns: x.RowType(), RowCount: 10}), 1)
			res, err := p.ApplyProgram(context.Background(), e)
			require.Nil(t, res)
			require.Error(t, err)
			require.True(t, errors.HasAssertionFailure(err), "%+v", err)
		})
	}
}

func TestBudget(t *testing.T) {
	x := table("x", types.Int)
	p := New(NewProgram(norm.EliminateTrueFilter))
	p.SetMaxSteps(1)
	res, err := p.ApplyProgram(context.Background(), filters(x, 3))
	require.NoError(t, err)
	require.True(t, p.BudgetExhausted())
	require.Equal(t, 1, p.Steps())
	require.Equal(t, 2, countOp(res, opt.FilterOp))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = New(NewProgram(norm.EliminateTrueFilter))
	res, err = p.ApplyProgram(ctx, filters(x, 3))
	require.NoError(t, err)
	require.True(t, p.BudgetExhausted())
	require.Equal(t, 3, countOp(res, opt.FilterOp))
}

func TestConvertWithoutConverterRule(t *testing.T) {
	// Without the implementation of scans, the union cannot be implemented
	// and stays as it is.
	x := table("x", types.Int)
	prog := NewProgram(iter.UnionToConcatenate)
	res, err := New(prog).ApplyProgram(context.Background(), memo.NewUnion([]memo.RelExpr{x, x}, true))
	require.NoError(t, err)
	require.Equal(t, physical.Logical, res.Traits())
	require.Equal(t, opt.UnionOp, res.Op())
}

func TestAppliedRuleAndMetrics(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	var applied []string
	p := New(NewProgram(norm.EliminateTrueFilter))
	p.SetMetrics(m)
	p.NotifyOnAppliedRule(func(ruleName string, source, target memo.RelExpr) {
		require.NotNil(t, target)
		applied = append(applied, ruleName+": "+memo.Digest(source))
	})
	_, err := p.ApplyProgram(context.Background(), filters(table("x", types.Int), 2))
	require.NoError(t, err)
	require.Equal(t, []string{
		"EliminateTrueFilter: filter.NONE(true)[vertex.NONE(#2)]",
		"EliminateTrueFilter: filter.NONE(true)[vertex.NONE(#1)]",
	}, applied)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Programs.WithLabelValues("ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.RuleFires.WithLabelValues("EliminateTrueFilter")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Steps))
}
