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

// Package flatfile is a storage connector for tables kept in delimited text
// files. It adds a scan operator of its own, which reads a subset of the
// file's fields, and the rules that push projections into it and implement
// it.
package flatfile

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// ScanOp reads the rows of a flat file.
var ScanOp = opt.RegisterOperator("flatfile-scan")

// Table is a table stored in a flat file. Its row count is the estimate the
// table was declared with.
type Table struct {
	*memo.Table
	Params Params
}

// ScanExpr reads the given fields of every line of a flat file.
type ScanExpr struct {
	Table  *Table
	Fields []int

	traits  physical.TraitSet
	rowType opt.RowType
}

var _ memo.RelExpr = &ScanExpr{}
var _ memo.RowCounter = &ScanExpr{}

// NewScan returns a logical scan of every field of tab.
func NewScan(tab *Table) *ScanExpr {
	fields := make([]int, len(tab.Columns))
	for i := range fields {
		fields[i] = i
	}
	return NewProjectedScan(tab, fields)
}

// NewProjectedScan returns a logical scan of the given fields of tab, in
// that order.
func NewProjectedScan(tab *Table, fields []int) *ScanExpr {
	rowType := make(opt.RowType, len(fields))
	for i, f := range fields {
		if f < 0 || f >= len(tab.Columns) {
			panic(errors.AssertionFailedf("field %d out of range for %s", f, tab.Name))
		}
		rowType[i] = tab.Columns[f]
	}
	return &ScanExpr{Table: tab, Fields: fields, rowType: rowType}
}

// Op is part of the RelExpr interface.
func (e *ScanExpr) Op() opt.Operator { return ScanOp }

// Traits is part of the RelExpr interface.
func (e *ScanExpr) Traits() physical.TraitSet { return e.traits }

// RowType is part of the RelExpr interface.
func (e *ScanExpr) RowType() opt.RowType { return e.rowType }

// ChildCount is part of the RelExpr interface.
func (e *ScanExpr) ChildCount() int { return 0 }

// Child is part of the RelExpr interface.
func (e *ScanExpr) Child(nth int) memo.RelExpr {
	panic(errors.AssertionFailedf("flat file scan has no children"))
}

// Private is part of the RelExpr interface.
func (e *ScanExpr) Private() string {
	var b strings.Builder
	b.WriteString(e.Table.Name)
	if !e.allFields() {
		b.WriteString(" fields=[")
		for i, f := range e.Fields {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d", f)
		}
		b.WriteByte(']')
	}
	fmt.Fprintf(&b, " path=%s", e.Table.Params.Path(e.Table.Name))
	return b.String()
}

func (e *ScanExpr) allFields() bool {
	if len(e.Fields) != len(e.Table.Columns) {
		return false
	}
	for i, f := range e.Fields {
		if f != i {
			return false
		}
	}
	return true
}

// RowCount is part of the RowCounter interface.
func (e *ScanExpr) RowCount(md memo.Metadata) float64 {
	return e.Table.RowCount
}

// SelfCost is part of the RelExpr interface. Every line is read and split,
// so a flat file costs more per row than a table scan; the part of the work
// spent on fields that are not returned is saved.
func (e *ScanExpr) SelfCost(md memo.Metadata) memo.Cost {
	rows := md.RowCount(e)
	ratio := 1.0
	if n := len(e.Table.Columns); n > 0 {
		ratio = float64(len(e.Fields)) / float64(n)
	}
	return memo.Cost{Rows: rows, CPU: rows * (1 + ratio), IO: rows * ratio}
}

// WithChildren is part of the RelExpr interface.
func (e *ScanExpr) WithChildren(children []memo.RelExpr) memo.RelExpr {
	if len(children) != 0 {
		panic(errors.AssertionFailedf("flat file scan expects no children, got %d", len(children)))
	}
	return e
}

// WithTraits is part of the RelExpr interface.
func (e *ScanExpr) WithTraits(traits physical.TraitSet) memo.RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}
