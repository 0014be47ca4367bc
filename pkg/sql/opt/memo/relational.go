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
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/types"
)

// relBase holds the fields shared by all built-in variants.
type relBase struct {
	traits  physical.TraitSet
	rowType opt.RowType
}

// Traits is part of the RelExpr interface.
func (b *relBase) Traits() physical.TraitSet { return b.traits }

// RowType is part of the RelExpr interface.
func (b *relBase) RowType() opt.RowType { return b.rowType }

// ---------------------------------------------------------------------------
// Scan

// ScanExpr reads every row of a table.
type ScanExpr struct {
	relBase
	Table *Table
}

var _ RelExpr = &ScanExpr{}

// NewScan returns a logical scan of tab.
func NewScan(tab *Table) *ScanExpr {
	return &ScanExpr{relBase: relBase{rowType: tab.Columns}, Table: tab}
}

// Op is part of the RelExpr interface.
func (e *ScanExpr) Op() opt.Operator { return opt.ScanOp }

// ChildCount is part of the RelExpr interface.
func (e *ScanExpr) ChildCount() int { return 0 }

// Child is part of the RelExpr interface.
func (e *ScanExpr) Child(nth int) RelExpr { panic(errors.AssertionFailedf("scan has no children")) }

// Private is part of the RelExpr interface.
func (e *ScanExpr) Private() string { return e.Table.Name }

// SelfCost is part of the RelExpr interface.
func (e *ScanExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *ScanExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 0)
	return e
}

// WithTraits is part of the RelExpr interface.
func (e *ScanExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Filter

// FilterExpr keeps the rows of its input for which Condition is true.
type FilterExpr struct {
	relBase
	Input     RelExpr
	Condition opt.ScalarExpr
}

var _ RelExpr = &FilterExpr{}

// NewFilter returns a logical filter.
func NewFilter(input RelExpr, cond opt.ScalarExpr) *FilterExpr {
	return &FilterExpr{relBase: relBase{rowType: input.RowType()}, Input: input, Condition: cond}
}

// Op is part of the RelExpr interface.
func (e *FilterExpr) Op() opt.Operator { return opt.FilterOp }

// ChildCount is part of the RelExpr interface.
func (e *FilterExpr) ChildCount() int { return 1 }

// Child is part of the RelExpr interface.
func (e *FilterExpr) Child(nth int) RelExpr { return e.Input }

// Private is part of the RelExpr interface.
func (e *FilterExpr) Private() string { return e.Condition.String() }

// SelfCost is part of the RelExpr interface.
func (e *FilterExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *FilterExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 1)
	cp := *e
	cp.Input = children[0]
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *FilterExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Project

// ProjectExpr computes Projections over each input row. The nth output
// column is named Names[n].
type ProjectExpr struct {
	relBase
	Input       RelExpr
	Projections []opt.ScalarExpr
	Names       []string
}

var _ RelExpr = &ProjectExpr{}

// NewProject returns a logical projection.
func NewProject(input RelExpr, projections []opt.ScalarExpr, names []string) *ProjectExpr {
	if len(projections) != len(names) {
		panic(errors.AssertionFailedf("%d projections but %d names", len(projections), len(names)))
	}
	rowType := make(opt.RowType, len(projections))
	for i, p := range projections {
		rowType[i] = opt.Column{Name: names[i], Type: p.Type()}
	}
	return &ProjectExpr{
		relBase:     relBase{rowType: rowType},
		Input:       input,
		Projections: projections,
		Names:       names,
	}
}

// NewIdentityProject returns a projection of the given input columns that
// keeps their names.
func NewIdentityProject(input RelExpr, cols []int) *ProjectExpr {
	in := input.RowType()
	projections := make([]opt.ScalarExpr, len(cols))
	names := make([]string, len(cols))
	for i, c := range cols {
		projections[i] = opt.NewVariable(in, c)
		names[i] = in[c].Name
	}
	return NewProject(input, projections, names)
}

// Op is part of the RelExpr interface.
func (e *ProjectExpr) Op() opt.Operator { return opt.ProjectOp }

// ChildCount is part of the RelExpr interface.
func (e *ProjectExpr) ChildCount() int { return 1 }

// Child is part of the RelExpr interface.
func (e *ProjectExpr) Child(nth int) RelExpr { return e.Input }

// Private is part of the RelExpr interface.
func (e *ProjectExpr) Private() string {
	var b strings.Builder
	for i, p := range e.Projections {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s AS %s", p, e.Names[i])
	}
	return b.String()
}

// SelfCost is part of the RelExpr interface.
func (e *ProjectExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *ProjectExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 1)
	cp := *e
	cp.Input = children[0]
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *ProjectExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// IsIdentity returns true if the projection returns its input columns
// unchanged, in order and with the same names.
func (e *ProjectExpr) IsIdentity() bool {
	in := e.Input.RowType()
	if len(e.Projections) != len(in) {
		return false
	}
	for i, p := range e.Projections {
		v, ok := p.(*opt.Variable)
		if !ok || v.Index != i || e.Names[i] != in[i].Name {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Join

// JoinType is the kind of join.
type JoinType uint8

// Join types.
const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

var joinTypeNames = [...]string{
	InnerJoin: "inner",
	LeftJoin:  "left",
	RightJoin: "right",
	FullJoin:  "full",
}

func (t JoinType) String() string { return joinTypeNames[t] }

// JoinTypeFromString parses the name of a join type.
func JoinTypeFromString(s string) (JoinType, error) {
	for i, n := range joinTypeNames {
		if n == s {
			return JoinType(i), nil
		}
	}
	return InnerJoin, errors.Newf("unknown join type %q", s)
}

// JoinExpr combines the rows of Left and Right. Its columns are the left
// columns followed by the right columns; the columns of the side that can be
// padded with NULLs by an outer join are nullable.
type JoinExpr struct {
	relBase
	Left      RelExpr
	Right     RelExpr
	Condition opt.ScalarExpr
	JoinType  JoinType
	// SemiJoinDone is set once semi-join reductions have been derived for the
	// join, so they are not derived again.
	SemiJoinDone bool
}

var _ RelExpr = &JoinExpr{}

// NewJoin returns a logical join.
func NewJoin(joinType JoinType, left, right RelExpr, cond opt.ScalarExpr) *JoinExpr {
	l, r := left.RowType(), right.RowType()
	switch joinType {
	case LeftJoin:
		r = r.WithNullable()
	case RightJoin:
		l = l.WithNullable()
	case FullJoin:
		l, r = l.WithNullable(), r.WithNullable()
	}
	return &JoinExpr{
		relBase:   relBase{rowType: l.Concat(r)},
		Left:      left,
		Right:     right,
		Condition: cond,
		JoinType:  joinType,
	}
}

// Op is part of the RelExpr interface.
func (e *JoinExpr) Op() opt.Operator { return opt.JoinOp }

// ChildCount is part of the RelExpr interface.
func (e *JoinExpr) ChildCount() int { return 2 }

// Child is part of the RelExpr interface.
func (e *JoinExpr) Child(nth int) RelExpr {
	if nth == 0 {
		return e.Left
	}
	return e.Right
}

// Private is part of the RelExpr interface.
func (e *JoinExpr) Private() string {
	s := e.JoinType.String() + " " + e.Condition.String()
	if e.SemiJoinDone {
		s += " semi-join-done"
	}
	return s
}

// SelfCost is part of the RelExpr interface.
func (e *JoinExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *JoinExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 2)
	cp := *e
	cp.Left, cp.Right = children[0], children[1]
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *JoinExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Aggregate

// AggCall is one aggregate function computed by an aggregation.
type AggCall struct {
	Func     string
	Args     []int
	Distinct bool
	Name     string
	Type     types.T
}

func (c AggCall) String() string {
	var b strings.Builder
	b.WriteString(c.Func)
	b.WriteByte('(')
	if c.Distinct {
		b.WriteString("DISTINCT ")
	}
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", a)
	}
	fmt.Fprintf(&b, ") AS %s", c.Name)
	return b.String()
}

// AggregateExpr groups its input on the first GroupCount input columns and
// computes Aggs for each group. Its columns are the grouping columns followed
// by one column per aggregate call. An aggregation with no calls only removes
// duplicates.
type AggregateExpr struct {
	relBase
	Input      RelExpr
	GroupCount int
	Aggs       []AggCall
}

var _ RelExpr = &AggregateExpr{}

// NewAggregate returns a logical aggregation.
func NewAggregate(input RelExpr, groupCount int, aggs []AggCall) *AggregateExpr {
	in := input.RowType()
	if groupCount > len(in) {
		panic(errors.AssertionFailedf("cannot group on %d of %d columns", groupCount, len(in)))
	}
	rowType := make(opt.RowType, 0, groupCount+len(aggs))
	rowType = append(rowType, in[:groupCount]...)
	for _, a := range aggs {
		rowType = append(rowType, opt.Column{Name: a.Name, Type: a.Type})
	}
	return &AggregateExpr{
		relBase:    relBase{rowType: rowType},
		Input:      input,
		GroupCount: groupCount,
		Aggs:       aggs,
	}
}

// Op is part of the RelExpr interface.
func (e *AggregateExpr) Op() opt.Operator { return opt.AggregateOp }

// ChildCount is part of the RelExpr interface.
func (e *AggregateExpr) ChildCount() int { return 1 }

// Child is part of the RelExpr interface.
func (e *AggregateExpr) Child(nth int) RelExpr { return e.Input }

// Private is part of the RelExpr interface.
func (e *AggregateExpr) Private() string {
	s := fmt.Sprintf("group=%d", e.GroupCount)
	if len(e.Aggs) > 0 {
		calls := make([]string, len(e.Aggs))
		for i := range e.Aggs {
			calls[i] = e.Aggs[i].String()
		}
		s += " aggs=[" + strings.Join(calls, ", ") + "]"
	}
	return s
}

// SelfCost is part of the RelExpr interface.
func (e *AggregateExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *AggregateExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 1)
	cp := *e
	cp.Input = children[0]
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *AggregateExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Set operations

// SetOpExpr is a UNION, INTERSECT or EXCEPT of two or more inputs. When All
// is false, duplicates are removed from the result.
type SetOpExpr struct {
	relBase
	op     opt.Operator
	Inputs []RelExpr
	All    bool
}

var _ RelExpr = &SetOpExpr{}

// NewSetOp returns a logical set operation. The column names are those of
// the first input, and each column type is the least restrictive type of the
// corresponding input columns.
func NewSetOp(op opt.Operator, inputs []RelExpr, all bool) *SetOpExpr {
	if !op.IsSetOp() {
		panic(errors.AssertionFailedf("%s is not a set operation", errors.Safe(op)))
	}
	return &SetOpExpr{
		relBase: relBase{rowType: deriveSetOpRowType(op, inputs)},
		op:      op,
		Inputs:  inputs,
		All:     all,
	}
}

// NewUnion returns a logical union.
func NewUnion(inputs []RelExpr, all bool) *SetOpExpr {
	return NewSetOp(opt.UnionOp, inputs, all)
}

func deriveSetOpRowType(op opt.Operator, inputs []RelExpr) opt.RowType {
	if len(inputs) == 0 {
		panic(errors.AssertionFailedf("%s needs at least one input", errors.Safe(op)))
	}
	first := inputs[0].RowType()
	rowType := make(opt.RowType, len(first))
	for i := range first {
		colTypes := make([]types.T, len(inputs))
		for j, in := range inputs {
			rt := in.RowType()
			if len(rt) != len(first) {
				panic(errors.AssertionFailedf(
					"%s input %d has %d columns, expected %d", errors.Safe(op), j, len(rt), len(first)))
			}
			colTypes[j] = rt[i].Type
		}
		typ, ok := types.LeastRestrictive(colTypes...)
		if !ok {
			panic(errors.AssertionFailedf(
				"%s column %d has incompatible types %v", errors.Safe(op), i, colTypes))
		}
		rowType[i] = opt.Column{Name: first[i].Name, Type: typ}
	}
	return rowType
}

// Op is part of the RelExpr interface.
func (e *SetOpExpr) Op() opt.Operator { return e.op }

// ChildCount is part of the RelExpr interface.
func (e *SetOpExpr) ChildCount() int { return len(e.Inputs) }

// Child is part of the RelExpr interface.
func (e *SetOpExpr) Child(nth int) RelExpr { return e.Inputs[nth] }

// Private is part of the RelExpr interface.
func (e *SetOpExpr) Private() string {
	if e.All {
		return "all"
	}
	return "distinct"
}

// SelfCost is part of the RelExpr interface.
func (e *SetOpExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *SetOpExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, len(e.Inputs))
	cp := *e
	cp.Inputs = children
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *SetOpExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// IsHomogeneous returns true if every input has exactly the row type of the
// set operation, names included.
func (e *SetOpExpr) IsHomogeneous() bool {
	for _, in := range e.Inputs {
		if !in.RowType().Equals(e.rowType) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Concatenate

// ConcatenateExpr is the physical implementation of UNION ALL: it returns all
// rows of its first input, then all rows of the second, and so on.
type ConcatenateExpr struct {
	relBase
	Inputs []RelExpr
}

var _ RelExpr = &ConcatenateExpr{}

// NewConcatenate returns a concatenation in the given traits.
func NewConcatenate(inputs []RelExpr, traits physical.TraitSet) *ConcatenateExpr {
	return &ConcatenateExpr{
		relBase: relBase{traits: traits, rowType: deriveSetOpRowType(opt.UnionOp, inputs)},
		Inputs:  inputs,
	}
}

// Op is part of the RelExpr interface.
func (e *ConcatenateExpr) Op() opt.Operator { return opt.ConcatenateOp }

// ChildCount is part of the RelExpr interface.
func (e *ConcatenateExpr) ChildCount() int { return len(e.Inputs) }

// Child is part of the RelExpr interface.
func (e *ConcatenateExpr) Child(nth int) RelExpr { return e.Inputs[nth] }

// Private is part of the RelExpr interface.
func (e *ConcatenateExpr) Private() string { return "" }

// SelfCost is part of the RelExpr interface. The fixed CPU and I/O charge
// makes a concatenation more expensive than a native implementation that
// does not need to switch between inputs.
func (e *ConcatenateExpr) SelfCost(md Metadata) Cost {
	return Cost{Rows: md.RowCount(e), CPU: 1000, IO: 1000}
}

// WithChildren is part of the RelExpr interface.
func (e *ConcatenateExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, len(e.Inputs))
	cp := *e
	cp.Inputs = children
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *ConcatenateExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Sample

// SampleParams describes how a sample is taken.
type SampleParams struct {
	// Bernoulli selects each row independently; otherwise whole blocks of rows
	// are selected (system sampling).
	Bernoulli bool
	// Percentage is the fraction of rows to return, in [0, 100].
	Percentage float64
	// Repeatable makes the sample deterministic for the given Seed.
	Repeatable bool
	Seed       int
}

func (p SampleParams) String() string {
	mode := "system"
	if p.Bernoulli {
		mode = "bernoulli"
	}
	s := fmt.Sprintf("%s %g%%", mode, p.Percentage)
	if p.Repeatable {
		s += fmt.Sprintf(" seed=%d", p.Seed)
	}
	return s
}

// SampleExpr returns a random subset of the rows of its input.
type SampleExpr struct {
	relBase
	Input  RelExpr
	Params SampleParams
}

var _ RelExpr = &SampleExpr{}

// NewSample returns a logical sample.
func NewSample(input RelExpr, params SampleParams) *SampleExpr {
	return &SampleExpr{relBase: relBase{rowType: input.RowType()}, Input: input, Params: params}
}

// Op is part of the RelExpr interface.
func (e *SampleExpr) Op() opt.Operator { return opt.SampleOp }

// ChildCount is part of the RelExpr interface.
func (e *SampleExpr) ChildCount() int { return 1 }

// Child is part of the RelExpr interface.
func (e *SampleExpr) Child(nth int) RelExpr { return e.Input }

// Private is part of the RelExpr interface.
func (e *SampleExpr) Private() string { return e.Params.String() }

// SelfCost is part of the RelExpr interface.
func (e *SampleExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *SampleExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 1)
	cp := *e
	cp.Input = children[0]
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *SampleExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Table function

// TableFunctionExpr calls a function that returns rows. The function may
// read the rows of zero or more relational inputs.
type TableFunctionExpr struct {
	relBase
	Call   opt.ScalarExpr
	Inputs []RelExpr
}

var _ RelExpr = &TableFunctionExpr{}

// NewTableFunction returns a logical table function call producing columns.
func NewTableFunction(call opt.ScalarExpr, inputs []RelExpr, columns opt.RowType) *TableFunctionExpr {
	return &TableFunctionExpr{relBase: relBase{rowType: columns}, Call: call, Inputs: inputs}
}

// Op is part of the RelExpr interface.
func (e *TableFunctionExpr) Op() opt.Operator { return opt.TableFunctionOp }

// ChildCount is part of the RelExpr interface.
func (e *TableFunctionExpr) ChildCount() int { return len(e.Inputs) }

// Child is part of the RelExpr interface.
func (e *TableFunctionExpr) Child(nth int) RelExpr { return e.Inputs[nth] }

// Private is part of the RelExpr interface.
func (e *TableFunctionExpr) Private() string {
	return e.Call.String() + " " + e.rowType.String()
}

// SelfCost is part of the RelExpr interface. Nothing is known about what the
// function does.
func (e *TableFunctionExpr) SelfCost(md Metadata) Cost {
	return HugeCost
}

// WithChildren is part of the RelExpr interface.
func (e *TableFunctionExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, len(e.Inputs))
	cp := *e
	cp.Inputs = children
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *TableFunctionExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Table modification

// ModifyOperation is the kind of change a TableModifyExpr makes.
type ModifyOperation uint8

// Modification kinds.
const (
	InsertOp ModifyOperation = iota
	UpdateOp
	DeleteOp
	MergeOp
)

var modifyOperationNames = [...]string{
	InsertOp: "insert",
	UpdateOp: "update",
	DeleteOp: "delete",
	MergeOp:  "merge",
}

func (o ModifyOperation) String() string { return modifyOperationNames[o] }

// ModifyOperationFromString parses the name of a modification kind.
func ModifyOperationFromString(s string) (ModifyOperation, error) {
	for i, n := range modifyOperationNames {
		if n == s {
			return ModifyOperation(i), nil
		}
	}
	return InsertOp, errors.Newf("unknown table modification %q", s)
}

// TableModifyExpr applies the rows of its input to a table and returns the
// number of rows affected.
type TableModifyExpr struct {
	relBase
	Table     *Table
	Operation ModifyOperation
	Input     RelExpr
	// UpdateColumns names the columns an update assigns.
	UpdateColumns []string
	// Flattened is set if the input rows have already been flattened to the
	// table's physical column layout.
	Flattened bool
}

var _ RelExpr = &TableModifyExpr{}

// RowCountColumn is the only column of a table modification.
var RowCountColumn = opt.Column{Name: "ROWCOUNT", Type: types.Int.NotNull()}

// NewTableModify returns a logical table modification.
func NewTableModify(
	tab *Table, op ModifyOperation, input RelExpr, updateCols []string, flattened bool,
) *TableModifyExpr {
	if (op == UpdateOp) != (len(updateCols) > 0) {
		panic(errors.AssertionFailedf("update columns must be given for updates and only for updates"))
	}
	return &TableModifyExpr{
		relBase:       relBase{rowType: opt.RowType{RowCountColumn}},
		Table:         tab,
		Operation:     op,
		Input:         input,
		UpdateColumns: updateCols,
		Flattened:     flattened,
	}
}

// Op is part of the RelExpr interface.
func (e *TableModifyExpr) Op() opt.Operator { return opt.TableModifyOp }

// ChildCount is part of the RelExpr interface.
func (e *TableModifyExpr) ChildCount() int { return 1 }

// Child is part of the RelExpr interface.
func (e *TableModifyExpr) Child(nth int) RelExpr { return e.Input }

// Private is part of the RelExpr interface.
func (e *TableModifyExpr) Private() string {
	s := e.Operation.String() + " " + e.Table.Name
	if len(e.UpdateColumns) > 0 {
		s += " [" + strings.Join(e.UpdateColumns, ", ") + "]"
	}
	if e.Flattened {
		s += " flattened"
	}
	return s
}

// SelfCost is part of the RelExpr interface.
func (e *TableModifyExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *TableModifyExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 1)
	cp := *e
	cp.Input = children[0]
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *TableModifyExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ExpectedInputRowType returns the row type the input of the modification
// must have. Inserted rows must match the table's columns; the inputs of the
// other operations are not constrained.
func (e *TableModifyExpr) ExpectedInputRowType() opt.RowType {
	if e.Operation == InsertOp {
		return e.Table.Columns
	}
	return e.Input.RowType()
}

// ---------------------------------------------------------------------------
// One row

// OneRowExpr returns a single row with a single column named ZERO.
type OneRowExpr struct {
	relBase
}

var _ RelExpr = &OneRowExpr{}

var oneRowType = opt.RowType{{Name: "ZERO", Type: types.Int.NotNull()}}

// NewOneRow returns a logical one-row expression.
func NewOneRow() *OneRowExpr {
	return &OneRowExpr{relBase: relBase{rowType: oneRowType}}
}

// Op is part of the RelExpr interface.
func (e *OneRowExpr) Op() opt.Operator { return opt.OneRowOp }

// ChildCount is part of the RelExpr interface.
func (e *OneRowExpr) ChildCount() int { return 0 }

// Child is part of the RelExpr interface.
func (e *OneRowExpr) Child(nth int) RelExpr {
	panic(errors.AssertionFailedf("one-row has no children"))
}

// Private is part of the RelExpr interface.
func (e *OneRowExpr) Private() string { return "" }

// SelfCost is part of the RelExpr interface.
func (e *OneRowExpr) SelfCost(md Metadata) Cost {
	return rowsCost(e, md)
}

// WithChildren is part of the RelExpr interface.
func (e *OneRowExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 0)
	return e
}

// WithTraits is part of the RelExpr interface.
func (e *OneRowExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Empty

// EmptyExpr returns no rows. It keeps the row type of the expression it
// replaced.
type EmptyExpr struct {
	relBase
}

var _ RelExpr = &EmptyExpr{}

// NewEmpty returns a logical empty expression with the given columns.
func NewEmpty(columns opt.RowType) *EmptyExpr {
	return &EmptyExpr{relBase: relBase{rowType: columns}}
}

// Op is part of the RelExpr interface.
func (e *EmptyExpr) Op() opt.Operator { return opt.EmptyOp }

// ChildCount is part of the RelExpr interface.
func (e *EmptyExpr) ChildCount() int { return 0 }

// Child is part of the RelExpr interface.
func (e *EmptyExpr) Child(nth int) RelExpr {
	panic(errors.AssertionFailedf("empty has no children"))
}

// Private is part of the RelExpr interface.
func (e *EmptyExpr) Private() string { return e.rowType.String() }

// SelfCost is part of the RelExpr interface.
func (e *EmptyExpr) SelfCost(md Metadata) Cost { return ZeroCost }

// WithChildren is part of the RelExpr interface.
func (e *EmptyExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 0)
	return e
}

// WithTraits is part of the RelExpr interface.
func (e *EmptyExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// ---------------------------------------------------------------------------
// Converters

// ConverterExpr changes the From trait of its input into the trait of the
// same dimension in its own trait set. It does not change the rows.
type ConverterExpr struct {
	relBase
	Input RelExpr
	From  physical.Trait
}

var _ RelExpr = &ConverterExpr{}

// NewConverter returns a converter from the input's trait in to's dimension
// to the trait to.
func NewConverter(input RelExpr, to physical.Trait) *ConverterExpr {
	return &ConverterExpr{
		relBase: relBase{traits: input.Traits().Replace(to), rowType: input.RowType()},
		Input:   input,
		From:    input.Traits().Get(to.Def()),
	}
}

// Op is part of the RelExpr interface.
func (e *ConverterExpr) Op() opt.Operator { return opt.ConverterOp }

// ChildCount is part of the RelExpr interface.
func (e *ConverterExpr) ChildCount() int { return 1 }

// Child is part of the RelExpr interface.
func (e *ConverterExpr) Child(nth int) RelExpr { return e.Input }

// Private is part of the RelExpr interface.
func (e *ConverterExpr) Private() string { return "from=" + e.From.String() }

// SelfCost is part of the RelExpr interface.
func (e *ConverterExpr) SelfCost(md Metadata) Cost {
	rows := md.RowCount(e.Input)
	return Cost{Rows: rows, CPU: rows}
}

// WithChildren is part of the RelExpr interface.
func (e *ConverterExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 1)
	cp := *e
	cp.Input = children[0]
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *ConverterExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}

// AbstractConverterExpr converts its input to its own trait set by means not
// yet decided. It costs infinitely much, so it is never part of a plan: the
// optimizer replaces it by a chain of concrete converters once its input has
// an implementation.
type AbstractConverterExpr struct {
	relBase
	Input RelExpr
}

var _ RelExpr = &AbstractConverterExpr{}

// NewAbstractConverter returns an abstract converter of input to traits.
func NewAbstractConverter(input RelExpr, traits physical.TraitSet) *AbstractConverterExpr {
	return &AbstractConverterExpr{
		relBase: relBase{traits: traits, rowType: input.RowType()},
		Input:   input,
	}
}

// Op is part of the RelExpr interface.
func (e *AbstractConverterExpr) Op() opt.Operator { return opt.AbstractConverterOp }

// ChildCount is part of the RelExpr interface.
func (e *AbstractConverterExpr) ChildCount() int { return 1 }

// Child is part of the RelExpr interface.
func (e *AbstractConverterExpr) Child(nth int) RelExpr { return e.Input }

// Private is part of the RelExpr interface.
func (e *AbstractConverterExpr) Private() string { return "" }

// SelfCost is part of the RelExpr interface.
func (e *AbstractConverterExpr) SelfCost(md Metadata) Cost { return InfiniteCost }

// WithChildren is part of the RelExpr interface.
func (e *AbstractConverterExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 1)
	cp := *e
	cp.Input = children[0]
	return &cp
}

// WithTraits is part of the RelExpr interface.
func (e *AbstractConverterExpr) WithTraits(traits physical.TraitSet) RelExpr {
	cp := *e
	cp.traits = traits
	return &cp
}
