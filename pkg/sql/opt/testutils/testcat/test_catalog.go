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

// Package testcat holds the tables tests build expressions over. Tables are
// declared with s-expression DDL statements.
package testcat

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt/flatfile"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/testutils/testexpr"
	"gopkg.in/yaml.v3"
)

// DefaultRowCount is the row count of tables that do not declare one.
const DefaultRowCount = 1000

// Catalog implements the testexpr.Catalog interface for testing purposes.
type Catalog struct {
	tables    map[string]*memo.Table
	flatFiles map[string]*flatfile.Table
}

var _ testexpr.Catalog = &Catalog{}

// New creates a new empty instance of the test catalog.
func New() *Catalog {
	return &Catalog{
		tables:    make(map[string]*memo.Table),
		flatFiles: make(map[string]*flatfile.Table),
	}
}

// Table is part of the testexpr.Catalog interface. Flat file tables can be
// used as ordinary tables too.
func (tc *Catalog) Table(name string) (*memo.Table, error) {
	if tab, ok := tc.tables[name]; ok {
		return tab, nil
	}
	if ff, ok := tc.flatFiles[name]; ok {
		return ff.Table, nil
	}
	return nil, errors.Newf("table %q does not exist", name)
}

// FlatFile is part of the testexpr.Catalog interface.
func (tc *Catalog) FlatFile(name string) (*flatfile.Table, error) {
	if ff, ok := tc.flatFiles[name]; ok {
		return ff, nil
	}
	return nil, errors.Newf("flat file table %q does not exist", name)
}

// AddTable adds a table, replacing any table of the same name.
func (tc *Catalog) AddTable(tab *memo.Table) {
	tc.drop(tab.Name)
	tc.tables[tab.Name] = tab
}

// AddFlatFile adds a flat file table, replacing any table of the same name.
func (tc *Catalog) AddFlatFile(tab *flatfile.Table) {
	tc.drop(tab.Name)
	tc.flatFiles[tab.Name] = tab
}

func (tc *Catalog) drop(name string) bool {
	_, ok1 := tc.tables[name]
	_, ok2 := tc.flatFiles[name]
	delete(tc.tables, name)
	delete(tc.flatFiles, name)
	return ok1 || ok2
}

// ExecuteDDL runs the DDL statements of input in order and returns the
// output of the statements that have one. The statements are:
//
//	(table name (col TYPE [NOT NULL])... [(rows n)])
//	(flatfile name (col TYPE [NOT NULL])... [(rows n)] [(params (key value)...)])
//	(drop name)
//	(show [name...])
//
// Flat file parameters use the keys of their YAML form.
func (tc *Catalog) ExecuteDDL(input string) (string, error) {
	stmts, err := testexpr.Parse(input)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, stmt := range stmts {
		s, err := tc.executeOne(stmt)
		if err != nil {
			return "", errors.Wrapf(err, "%s", stmt.Head())
		}
		out.WriteString(s)
	}
	return out.String(), nil
}

func (tc *Catalog) executeOne(stmt *testexpr.Node) (string, error) {
	if !stmt.IsList() || stmt.Head() == "" {
		return "", errors.Newf("expected a statement, found %s", stmt)
	}
	args := stmt.List[1:]
	switch stmt.Head() {
	case "table":
		tab, _, err := parseTable(args, false)
		if err != nil {
			return "", err
		}
		tc.AddTable(tab)
		return "", nil

	case "flatfile":
		tab, params, err := parseTable(args, true)
		if err != nil {
			return "", err
		}
		tc.AddFlatFile(&flatfile.Table{Table: tab, Params: params})
		return "", nil

	case "drop":
		if len(args) != 1 || args[0].IsList() {
			return "", errors.New("expected (drop name)")
		}
		if !tc.drop(args[0].Atom) {
			return "", errors.Newf("table %q does not exist", args[0].Atom)
		}
		return "", nil

	case "show":
		var names []string
		for _, a := range args {
			names = append(names, a.Atom)
		}
		if len(names) == 0 {
			names = tc.names()
		}
		var b strings.Builder
		for _, name := range names {
			s, err := tc.describe(name)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil

	default:
		return "", errors.Newf("unsupported statement %s", stmt.Head())
	}
}

func (tc *Catalog) names() []string {
	names := make([]string, 0, len(tc.tables)+len(tc.flatFiles))
	for name := range tc.tables {
		names = append(names, name)
	}
	for name := range tc.flatFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (tc *Catalog) describe(name string) (string, error) {
	if ff, ok := tc.flatFiles[name]; ok {
		return fmt.Sprintf("flatfile %s %s rows=%g path=%s\n",
			name, ff.Columns, ff.RowCount, ff.Params.Path(name)), nil
	}
	tab, err := tc.Table(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("table %s %s rows=%g\n", name, tab.Columns, tab.RowCount), nil
}

func parseTable(args []*testexpr.Node, flat bool) (*memo.Table, flatfile.Params, error) {
	if len(args) == 0 || args[0].IsList() {
		return nil, flatfile.Params{}, errors.New("missing table name")
	}
	tab := &memo.Table{Name: args[0].Atom, RowCount: DefaultRowCount}
	params := flatfile.DefaultParams()
	seen := make(map[string]bool)
	for _, a := range args[1:] {
		switch a.Head() {
		case "rows":
			if len(a.List) != 2 {
				return nil, params, errors.New("expected (rows n)")
			}
			n, err := strconv.ParseFloat(a.List[1].Atom, 64)
			if err != nil || n < 0 {
				return nil, params, errors.Newf("invalid row count %s", a.List[1])
			}
			tab.RowCount = n

		case "params":
			if !flat {
				return nil, params, errors.New("only flat files have parameters")
			}
			p, err := parseParams(a.List[1:])
			if err != nil {
				return nil, params, err
			}
			params = p

		default:
			col, err := testexpr.ParseColumn(a)
			if err != nil {
				return nil, params, err
			}
			if seen[col.Name] {
				return nil, params, errors.Newf("duplicate column %s", col.Name)
			}
			seen[col.Name] = true
			tab.Columns = append(tab.Columns, col)
		}
	}
	if len(tab.Columns) == 0 {
		return nil, params, errors.Newf("table %s has no columns", tab.Name)
	}
	return tab, params, nil
}

// parseParams reads (key value) pairs into flat file parameters. The pairs
// are turned into a YAML document, so that they are decoded and validated
// the same way as parameters read from a file.
func parseParams(pairs []*testexpr.Node) (flatfile.Params, error) {
	doc := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		if len(p.List) != 2 || p.List[0].IsList() || p.List[1].IsList() {
			return flatfile.Params{}, errors.Newf("expected (key value), found %s", p)
		}
		doc[p.List[0].Atom] = paramValue(p.List[1].Atom)
	}
	buf, err := yaml.Marshal(doc)
	if err != nil {
		return flatfile.Params{}, errors.Wrap(err, "encoding flat file parameters")
	}
	return flatfile.LoadParams(bytes.NewReader(buf))
}

func paramValue(s string) interface{} {
	if strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") && len(s) >= 2 {
		s = strings.ReplaceAll(s[1:len(s)-1], "''", "'")
		return strings.NewReplacer(`\n`, "\n", `\t`, "\t").Replace(s)
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if s == "true" || s == "false" {
		return s == "true"
	}
	return s
}
