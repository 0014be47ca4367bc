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

package memo

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

var iterTraits = physical.ConventionSet("ITERATOR")

func gtCond(input RelExpr) opt.ScalarExpr {
	return &opt.Call{
		Name: "gt",
		Args: []opt.ScalarExpr{
			opt.NewVariable(input.RowType(), 0),
			&opt.Const{Value: 5, Typ: types.Int},
		},
		Typ: types.Bool,
	}
}

// catch runs fn and returns the error it panicked with.
func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = opt.CatchOptimizerError(r)
		}
	}()
	fn()
	return nil
}

func TestMemoRegisterDeduplicates(t *testing.T) {
	m := New(nil, nil, PreferEarlier)
	tab := testTable("t", 100)

	s1 := m.Register(NewFilter(NewScan(tab), gtCond(NewScan(tab))), 0)
	s2 := m.Register(NewFilter(NewScan(tab), gtCond(NewScan(tab))), 0)
	require.Equal(t, s1, s2)
	require.Equal(t, 2, m.Stats().Members)
	require.Equal(t, 2, m.Stats().Sets)

	// The stored filter refers to the scan through a placeholder.
	mem := s1.Members()[0]
	require.Equal(t, opt.SubsetOp, mem.Expr().Child(0).Op())
	require.Equal(t, 25.0, s1.Set().RowCount())
}

func TestMemoBestCostRatchet(t *testing.T) {
	m := New(nil, nil, PreferEarlier)
	tab := testTable("t", 10)

	logical := m.Register(NewScan(tab), 0)
	_, cost := logical.Best()
	require.True(t, cost.IsInfinite())

	scanSub := m.Register(NewScan(tab).WithTraits(iterTraits), logical.Set().ID())
	require.Equal(t, logical.Set(), scanSub.Set())
	best, cost := scanSub.Best()
	require.Equal(t, opt.ScanOp, best.Expr().Op())
	require.Equal(t, Cost{Rows: 10, CPU: 10}, cost)

	filter := NewFilter(scanSub.Placeholder(), gtCond(scanSub.Placeholder())).WithTraits(iterTraits)
	filterSub := m.Register(filter, 0)
	_, cost = filterSub.Best()
	require.Equal(t, Cost{Rows: 12.5, CPU: 12.5}, cost)

	// A cheaper implementation of the scan lowers the cost of the filter.
	m.Register(NewEmpty(tab.Columns).WithTraits(iterTraits), scanSub.Set().ID())
	best, cost = scanSub.Best()
	require.Equal(t, opt.EmptyOp, best.Expr().Op())
	require.Equal(t, ZeroCost, cost)
	_, cost = filterSub.Best()
	require.Equal(t, Cost{Rows: 2.5, CPU: 2.5}, cost)
}

func TestMemoTieBreak(t *testing.T) {
	flat := CosterFunc(func(e RelExpr, md Metadata) Cost { return Cost{CPU: 1} })
	tab := testTable("t", 10)

	for _, tc := range []struct {
		tieBreak TieBreak
		expected opt.Operator
	}{
		{PreferEarlier, opt.ScanOp},
		{PreferLater, opt.EmptyOp},
	} {
		t.Run(tc.tieBreak.String(), func(t *testing.T) {
			m := New(flat, nil, tc.tieBreak)
			sub := m.Register(NewScan(tab).WithTraits(iterTraits), 0)
			m.Register(NewEmpty(tab.Columns).WithTraits(iterTraits), sub.Set().ID())
			best, cost := sub.Best()
			require.Equal(t, tc.expected, best.Expr().Op())
			require.Equal(t, Cost{CPU: 1}, cost)
		})
	}
}

func TestMemoRowTypeMismatch(t *testing.T) {
	m := New(nil, nil, PreferEarlier)
	sub := m.Register(NewScan(testTable("t", 10)), 0)

	other := opt.RowType{{Name: "x", Type: types.String}}
	err := catch(func() { m.Register(NewEmpty(other), sub.Set().ID()) })
	require.Error(t, err)
	require.True(t, errors.HasAssertionFailure(err), "%+v", err)

	// Names and nullability may differ.
	renamed := opt.RowType{{Name: "x", Type: types.Int}, {Name: "y", Type: types.String.NotNull()}}
	require.NoError(t, catch(func() { m.Register(NewEmpty(renamed), sub.Set().ID()) }))
}

func TestMemoMergeCascades(t *testing.T) {
	m := New(nil, nil, PreferEarlier)
	t1 := m.Register(NewScan(testTable("t1", 10)), 0)
	x := m.Register(NewFilter(t1.Placeholder(), gtCond(t1.Placeholder())), 0)
	t2 := m.Register(NewScan(testTable("t2", 10)), 0)
	y := m.Register(NewFilter(t2.Placeholder(), gtCond(t2.Placeholder())), 0)

	var merges [][2]SetID
	m.OnMerge = func(kept, merged SetID) { merges = append(merges, [2]SetID{kept, merged}) }

	m.Merge(t1.Set().ID(), t2.Set().ID())

	// Once the scans are equivalent, so are the filters over them.
	require.Equal(t, [][2]SetID{{1, 3}, {2, 4}}, merges)
	require.Equal(t, x.Set(), y.Set())
	require.Equal(t, x.Canonical(), y.Canonical())
	require.Len(t, x.Members(), 1)
	require.Equal(t, 2, m.Stats().Sets)
	require.Len(t, m.Sets(), 2)
	require.Len(t, t1.Set().Members(), 2)

	// Registering the filter over the second scan again finds the survivor.
	again := m.Register(NewFilter(NewScan(testTable("t2", 10)), gtCond(t2.Placeholder())), 0)
	require.Equal(t, x.Canonical(), again)
}

func TestMemoExpandAndEvents(t *testing.T) {
	m := New(nil, nil, PreferEarlier)
	tab := testTable("t", 10)
	sub := m.Register(NewUnion([]RelExpr{NewScan(tab), NewScan(testTable("u", 5))}, true), 0)
	require.Len(t, m.DrainEvents(), 3)
	require.Nil(t, m.DrainEvents())

	union := sub.Members()[0].Expr()
	left := m.Expand(union.Child(0))
	require.Len(t, left, 1)
	require.Equal(t, "t", left[0].Private())

	impl := m.EnsureSubset(sub.Set().ID(), iterTraits)
	m.MarkRequired(impl)
	events := m.DrainEvents()
	require.Len(t, events, 1)
	require.Equal(t, impl, events[0])
	require.True(t, impl.Required())
	require.Empty(t, impl.Members())

	require.Equal(t, []RelExpr{union}, m.Expand(union))
	require.Contains(t, m.String(), "S1 (a INT NOT NULL, b STRING) rows=10")
	require.Contains(t, m.String(), "union all #1 #2")
}

func TestCheckExpr(t *testing.T) {
	scan := NewScan(testTable("t", 10))
	bad := NewFilter(scan, opt.NewVariable(opt.RowType{{}, {}, {}}, 2))
	err := catch(func() { CheckExpr(bad) })
	require.True(t, errors.HasAssertionFailure(err))

	require.NoError(t, catch(func() { CheckExpr(NewFilter(scan, gtCond(scan))) }))
}

func TestMemoDot(t *testing.T) {
	m := New(nil, nil, PreferEarlier)
	sub := m.Register(NewUnion([]RelExpr{NewScan(testTable("t", 10)), NewScan(testTable("u", 5))}, true), 0)
	m.MarkRequired(m.EnsureSubset(sub.Set().ID(), iterTraits))

	d := m.Dot()
	require.Contains(t, d, "digraph")
	require.Contains(t, d, "cluster")
	require.Contains(t, d, "union all #1 #2")
	require.Contains(t, d, "#4 ITERATOR")
	require.Contains(t, d, "peripheries")
	require.Contains(t, d, "dashed")
}
