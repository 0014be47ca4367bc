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

package testcat

import (
	"testing"

	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/testutils/testexpr"
	"github.com/stretchr/testify/require"
)

func TestExecuteDDL(t *testing.T) {
	tc := New()
	out, err := tc.ExecuteDDL(`
(table t (a INT NOT NULL) (b STRING) (rows 50))
(flatfile f (x FLOAT) (params (directory /data) (field_delimiter '|') (header false)))
(show)`)
	require.NoError(t, err)
	require.Equal(t,
		"flatfile f (x FLOAT) rows=1000 path=/data/f.txt\n"+
			"table t (a INT NOT NULL, b STRING) rows=50\n", out)

	ff, err := tc.FlatFile("f")
	require.NoError(t, err)
	require.Equal(t, "|", ff.Params.FieldDelimiter)
	require.False(t, ff.Params.Header)
	require.Equal(t, `"`, ff.Params.Quote)

	// Flat files can be scanned as ordinary tables.
	e, err := testexpr.Build(tc, "(union all (scan f) (flatfile-scan f))")
	require.NoError(t, err)
	require.Equal(t, 2, e.ChildCount())

	_, err = tc.ExecuteDDL("(drop f)")
	require.NoError(t, err)
	_, err = tc.FlatFile("f")
	require.Error(t, err)

	// Redefining a table replaces it.
	_, err = tc.ExecuteDDL("(table t (c INT))")
	require.NoError(t, err)
	tab, err := tc.Table("t")
	require.NoError(t, err)
	require.Equal(t, "(c INT)", tab.Columns.String())
	require.Equal(t, float64(DefaultRowCount), tab.RowCount)

	tc.AddTable(&memo.Table{Name: "m", Columns: tab.Columns, RowCount: 3})
	out, err = tc.ExecuteDDL("(show m)")
	require.NoError(t, err)
	require.Equal(t, "table m (c INT) rows=3\n", out)
}

func TestExecuteDDLErrors(t *testing.T) {
	for input, msg := range map[string]string{
		"(table)":                                   "missing table name",
		"(table t)":                                 "table t has no columns",
		"(table t (a INT) (a STRING))":              "duplicate column a",
		"(table t (a INT) (rows many))":             "invalid row count many",
		"(table t (a INT) (params))":                "only flat files have parameters",
		"(flatfile f (a INT) (params (quote '')))":  "quote must be a single character",
		"(flatfile f (a INT) (params (color red)))": "field color not found",
		"(drop nope)":                               `table "nope" does not exist`,
		"(show nope)":                               `table "nope" does not exist`,
		"(create t)":                                "unsupported statement create",
	} {
		_, err := New().ExecuteDDL(input)
		require.Error(t, err, input)
		require.Contains(t, err.Error(), msg, input)
	}
}
