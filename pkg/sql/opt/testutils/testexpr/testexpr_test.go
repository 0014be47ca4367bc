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

package testexpr

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/flatfile"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

type mapCatalog map[string]*memo.Table

func (c mapCatalog) Table(name string) (*memo.Table, error) {
	if tab, ok := c[name]; ok {
		return tab, nil
	}
	return nil, errors.Newf("no table %s", name)
}

func (c mapCatalog) FlatFile(name string) (*flatfile.Table, error) {
	tab, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	return &flatfile.Table{Table: tab, Params: flatfile.DefaultParams()}, nil
}

var testCatalog = mapCatalog{
	"t": {Name: "t", Columns: opt.RowType{
		{Name: "a", Type: types.Int.NotNull()},
		{Name: "b", Type: types.String},
	}, RowCount: 100},
	"u": {Name: "u", Columns: opt.RowType{
		{Name: "x", Type: types.Float},
		{Name: "y", Type: types.String},
	}, RowCount: 10},
}

func TestParse(t *testing.T) {
	nodes, err := Parse(`
-- two expressions
(a (b 'it''s') c)
d`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, "(a (b 'it''s') c)", nodes[0].String())
	require.Equal(t, "a", nodes[0].Head())
	require.True(t, nodes[0].IsList())
	require.Equal(t, "d", nodes[1].Atom)
	require.False(t, nodes[1].IsList())

	empty, err := ParseOne("()")
	require.NoError(t, err)
	require.True(t, empty.IsList())
	require.Equal(t, "", empty.Head())

	for input, msg := range map[string]string{
		"(a (b)":   "unterminated list",
		"'abc":     "unterminated string",
		"a)":       "unexpected )",
		"(a) (b)":  "expected one expression, found 2",
		"-- empty": "expected one expression, found 0",
	} {
		_, err := ParseOne(input)
		require.Error(t, err, input)
		require.Contains(t, err.Error(), msg, input)
	}
}

func TestBuild(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{"(scan t)", "scan.NONE(t)"},
		{"(scan.ITERATOR t)", "scan.ITERATOR(t)"},
		{"(filter (> $0 1) (scan t))", "filter.NONE(>($0, 1))[scan.NONE(t)]"},
		{
			"(project ((s (+ $0 2.5)) (b $1)) (scan t))",
			"project.NONE(+($0, 2.5) AS s, $1 AS b)[scan.NONE(t)]",
		},
		{
			"(join left (= $0 $2) (scan t) (scan u))",
			"join.NONE(left =($0, $2))[scan.NONE(t),scan.NONE(u)]",
		},
		{
			"(aggregate 1 ((n count) (m max distinct $1)) (scan t))",
			"aggregate.NONE(group=1 aggs=[count() AS n, max(DISTINCT $1) AS m])[scan.NONE(t)]",
		},
		{"(union distinct (scan t) (scan t))", "union.NONE(distinct)[scan.NONE(t),scan.NONE(t)]"},
		{"(except all (scan t) (scan t))", "except.NONE(all)[scan.NONE(t),scan.NONE(t)]"},
		{"(concatenate.ITERATOR (scan.ITERATOR t))", "concatenate.ITERATOR[scan.ITERATOR(t)]"},
		{"(converter.COLLECTION (scan.ITERATOR t))", "converter.COLLECTION(from=ITERATOR)[scan.ITERATOR(t)]"},
		{"(sample bernoulli 10 (scan t))", "sample.NONE(bernoulli 10%)[scan.NONE(t)]"},
		{"(sample system 2.5 repeatable 7 (scan t))", "sample.NONE(system 2.5% seed=7)[scan.NONE(t)]"},
		{
			"(table-function (generate_series 1 10) ((g INT NOT NULL)))",
			"table-function.NONE(generate_series(1, 10) (g INT NOT NULL))",
		},
		{"(table-modify insert t (scan t))", "table-modify.NONE(insert t)[scan.NONE(t)]"},
		{
			"(table-modify update t (cols b) flattened (scan t))",
			"table-modify.NONE(update t [b] flattened)[scan.NONE(t)]",
		},
		{"(one-row.ITERATOR)", "one-row.ITERATOR"},
		{"(empty (a INT) (b STRING NOT NULL))", "empty.NONE((a INT, b STRING NOT NULL))"},
	} {
		t.Run(tc.input, func(t *testing.T) {
			e, err := Build(testCatalog, tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, memo.Digest(e))
			require.NotPanics(t, func() { memo.CheckExpr(e) })
		})
	}
}

func TestBuildFlatFile(t *testing.T) {
	e, err := Build(testCatalog, "(flatfile-scan u 1)")
	require.NoError(t, err)
	require.Equal(t, flatfile.ScanOp, e.Op())
	require.Equal(t, opt.RowType{{Name: "y", Type: types.String}}, e.RowType())
}

func TestBuildRowTypes(t *testing.T) {
	e, err := Build(testCatalog, "(join full true (scan t) (scan u))")
	require.NoError(t, err)
	require.Equal(t, "(a INT, b STRING, x FLOAT, y STRING)", e.RowType().String())

	e, err = Build(testCatalog, "(aggregate 0 ((n count) (s sum $0) (v avg $0) (f f:STRING $1)) (scan t))")
	require.NoError(t, err)
	require.Equal(t, "(n INT NOT NULL, s INT, v DECIMAL, f STRING)", e.RowType().String())
}

func TestBuildErrors(t *testing.T) {
	for input, msg := range map[string]string{
		"(scan nope)":                            "no table nope",
		"(frobnicate)":                           "unknown operator frobnicate",
		"(filter (> $5 1) (scan t))":             "no input column $5",
		"(union maybe (scan t))":                 "expected all or distinct",
		"(sample bernoulli 200 (scan t))":        "percentage must be between 0 and 100",
		"(join sideways true (scan t) (scan t))": "unknown join type",
		"(empty (a WIDGET))":                     "unknown type",
		"(aggregate 5 () (scan t))":              "cannot group on 5 of 2 columns",
		"(converter (scan t))":                   "converter needs a target convention",
		"(project ((a)) (scan t))":               "expected (name scalar)",
		"(filter (+ $1 1) (scan t))":             "incompatible operand types",
	} {
		_, err := Build(testCatalog, input)
		require.Error(t, err, input)
		require.Contains(t, err.Error(), msg, input)
	}
}

func TestBuildScalar(t *testing.T) {
	input := testCatalog["t"].Columns
	for _, tc := range []struct {
		input string
		want  string
		typ   types.T
	}{
		{"$1", "$1", types.String},
		{"'it''s'", "'it''s'", types.String.NotNull()},
		{"null", "NULL", types.Unknown},
		{"2.50:DECIMAL", "2.50", types.Decimal.NotNull()},
		{"(+ $0 0.5:DECIMAL)", "+($0, 0.5)", types.Decimal.NotNull()},
		{"(cast $0 FLOAT)", "CAST($0 AS FLOAT)", types.Float.NotNull()},
		{"(cast $0 INT)", "$0", types.Int.NotNull()},
		{"(and (= $0 1) (is-null $1))", "and(=($0, 1), is-null($1))", types.Bool.NotNull()},
		{"(= $1 'x')", "=($1, 'x')", types.Bool},
		{"(upper:STRING $1)", "upper($1)", types.String},
		{"(coalesce $1 'x')", "coalesce($1, 'x')", types.Any},
	} {
		e, err := BuildScalar(input, tc.input)
		require.NoError(t, err, tc.input)
		require.Equal(t, tc.want, e.String(), tc.input)
		require.Equal(t, tc.typ, e.Type(), tc.input)
	}
}
