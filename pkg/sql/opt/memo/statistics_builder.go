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
	"math"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
)

const (
	// This is the selectivity used for any filter or join condition other than
	// the literal true. Nothing is known about the distribution of values.
	unknownFilterSelectivity = 0.25

	// UnknownDistinctCountRatio is the ratio of groups to input rows of a
	// grouped aggregation.
	UnknownDistinctCountRatio = 0.1

	// Ratio of rows that survive duplicate removal in a distinct union.
	unknownUnionDistinctRatio = 0.5

	// Nothing is known about what a table function returns.
	unknownTableFunctionRowCount = 100
)

// EstimateRowCount returns the number of rows e is expected to produce. The
// row counts of its inputs are obtained from md, so that inputs stored in a
// memo are estimated once per equivalence set.
func EstimateRowCount(e RelExpr, md Metadata) float64 {
	switch t := e.(type) {
	case *ScanExpr:
		return t.Table.RowCount

	case *FilterExpr:
		return filterRowCount(md.RowCount(t.Input), t.Condition)

	case *ProjectExpr:
		return md.RowCount(t.Input)

	case *JoinExpr:
		return filterRowCount(md.RowCount(t.Left)*md.RowCount(t.Right), t.Condition)

	case *AggregateExpr:
		if t.GroupCount == 0 {
			return 1
		}
		return math.Max(1, md.RowCount(t.Input)*UnknownDistinctCountRatio)

	case *SetOpExpr:
		return setOpRowCount(t, md)

	case *ConcatenateExpr:
		var sum float64
		for _, in := range t.Inputs {
			sum += md.RowCount(in)
		}
		return sum

	case *SampleExpr:
		return md.RowCount(t.Input) * t.Params.Percentage / 100

	case *TableFunctionExpr:
		return unknownTableFunctionRowCount

	case *TableModifyExpr:
		return md.RowCount(t.Input)

	case *OneRowExpr:
		return 1

	case *EmptyExpr:
		return 0

	case *ConverterExpr:
		return md.RowCount(t.Input)

	case *AbstractConverterExpr:
		return md.RowCount(t.Input)

	case RowCounter:
		return t.RowCount(md)
	}
	panic(errors.AssertionFailedf("no row count estimate for %s", errors.Safe(e.Op())))
}

func filterRowCount(input float64, cond opt.ScalarExpr) float64 {
	if opt.IsTrue(cond) {
		return input
	}
	return input * unknownFilterSelectivity
}

func setOpRowCount(e *SetOpExpr, md Metadata) float64 {
	switch e.Op() {
	case opt.UnionOp:
		var sum float64
		for _, in := range e.Inputs {
			sum += md.RowCount(in)
		}
		if !e.All {
			sum *= unknownUnionDistinctRatio
		}
		return sum

	case opt.IntersectOp:
		res := math.Inf(1)
		for _, in := range e.Inputs {
			res = math.Min(res, md.RowCount(in))
		}
		return res

	default:
		return md.RowCount(e.Inputs[0])
	}
}

// TreeMetadata estimates row counts of expression trees that are not stored
// in a memo by recursing into their inputs.
var TreeMetadata Metadata = treeMetadata{}

type treeMetadata struct{}

// RowCount is part of the Metadata interface.
func (treeMetadata) RowCount(e RelExpr) float64 {
	if s, ok := e.(*SubsetExpr); ok {
		return s.Subset().Set().RowCount()
	}
	return EstimateRowCount(e, treeMetadata{})
}
