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

package flatfile

import (
	"context"
	"strings"
	"testing"

	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/iter"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	return &Table{
		Table: &memo.Table{
			Name: "emps",
			Columns: opt.RowType{
				{Name: "id", Type: types.Int.NotNull()},
				{Name: "name", Type: types.String},
				{Name: "salary", Type: types.Decimal},
			},
			RowCount: 40,
		},
		Params: DefaultParams(),
	}
}

func TestParams(t *testing.T) {
	p, err := LoadParams(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, DefaultParams(), p)
	require.Equal(t, "emps.txt", p.Path("emps"))

	p, err = LoadParams(strings.NewReader("directory: /data\nextension: csv\nfield_delimiter: \"|\"\nheader: false\n"))
	require.NoError(t, err)
	require.Equal(t, "|", p.FieldDelimiter)
	require.False(t, p.Header)
	require.Equal(t, 5, p.RowsToScan)
	require.Equal(t, "/data/emps.csv", p.Path("emps"))

	_, err = LoadParams(strings.NewReader("quote: \"''\"\n"))
	require.ErrorContains(t, err, "quote must be a single character")

	_, err = LoadParams(strings.NewReader("delimiter: x\n"))
	require.ErrorContains(t, err, "decoding flat file parameters")
}

func TestScanExpr(t *testing.T) {
	tab := testTable()
	scan := NewScan(tab)
	require.Equal(t, "flatfile-scan", scan.Op().String())
	require.Equal(t, "flatfile-scan.NONE(emps path=emps.txt)", memo.Digest(scan))
	require.Equal(t, 40.0, memo.TreeMetadata.RowCount(scan))
	require.NotPanics(t, func() { memo.CheckExpr(scan) })

	proj := NewProjectedScan(tab, []int{2, 0})
	require.Equal(t, "flatfile-scan.NONE(emps fields=[2,0] path=emps.txt)", memo.Digest(proj))
	require.Equal(t, "(salary DECIMAL, id INT NOT NULL)", proj.RowType().String())

	// Reading a file costs more per row than scanning a table of the same
	// size, and reading fewer fields costs less.
	md := memo.TreeMetadata
	tableScan := memo.NewScan(tab.Table)
	require.True(t, memo.DefaultCostModel.Less(tableScan.SelfCost(md), scan.SelfCost(md)))
	require.True(t, memo.DefaultCostModel.Less(proj.SelfCost(md), scan.SelfCost(md)))

	require.Panics(t, func() { NewProjectedScan(tab, []int{3}) })
}

type testCall struct {
	bindings []memo.RelExpr
	result   memo.RelExpr
}

var _ rule.Call = &testCall{}

func (c *testCall) Context() context.Context             { return context.Background() }
func (c *testCall) Rule() rule.Rule                      { return nil }
func (c *testCall) Binding(nth int) memo.RelExpr         { return c.bindings[nth] }
func (c *testCall) Bindings() []memo.RelExpr             { return c.bindings }
func (c *testCall) TransformTo(e memo.RelExpr)           { c.result = e }
func (c *testCall) Expand(e memo.RelExpr) []memo.RelExpr { return []memo.RelExpr{e} }
func (c *testCall) RowCount(e memo.RelExpr) float64      { return memo.TreeMetadata.RowCount(e) }

func (c *testCall) Convert(e memo.RelExpr, traits physical.TraitSet) memo.RelExpr {
	return nil
}

func fire(r rule.Rule, e memo.RelExpr) string {
	for _, b := range rule.Match(r.Operand(), e, func(e memo.RelExpr) []memo.RelExpr {
		return []memo.RelExpr{e}
	}) {
		c := &testCall{bindings: b}
		r.OnMatch(c)
		if c.result != nil {
			return memo.Digest(c.result)
		}
	}
	return ""
}

func TestRules(t *testing.T) {
	tab := testTable()
	scan := NewScan(tab)

	require.Equal(t, "flatfile-scan.ITERATOR(emps path=emps.txt)", fire(ScanToIterator, scan))
	require.Equal(t, "", fire(ScanToIterator, scan.WithTraits(physical.ConventionSet(iter.Iterator))))

	p := memo.NewIdentityProject(scan, []int{2})
	require.Equal(t, "flatfile-scan.NONE(emps fields=[2] path=emps.txt)", fire(ProjectIntoScan, p))

	// Projections of projected scans compose.
	p = memo.NewIdentityProject(NewProjectedScan(tab, []int{2, 1}), []int{1})
	require.Equal(t, "flatfile-scan.NONE(emps fields=[1] path=emps.txt)", fire(ProjectIntoScan, p))

	// Computed columns and renamed columns stay in the projection.
	p = memo.NewProject(scan, []opt.ScalarExpr{opt.NewVariable(scan.RowType(), 0)}, []string{"x"})
	require.Equal(t, "", fire(ProjectIntoScan, p))
	p = memo.NewProject(scan, []opt.ScalarExpr{
		opt.NewCast(opt.NewVariable(scan.RowType(), 0), types.Float),
	}, []string{"id"})
	require.Equal(t, "", fire(ProjectIntoScan, p))
}
