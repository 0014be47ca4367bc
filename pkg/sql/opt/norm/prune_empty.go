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

package norm

import (
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
)

// PruneEmptySetOp removes the inputs of a set operation that return no
// rows. An INTERSECT with an empty input, an EXCEPT whose first input is
// empty and a UNION of empty inputs are empty themselves.
var PruneEmptySetOp = rule.New(
	PruneEmptySetOpName,
	rule.Any().WithTrait(physical.None).WithPredicate(func(e memo.RelExpr) bool {
		return e.Op().IsSetOp()
	}),
	func(call rule.Call) {
		e := call.Binding(0).(*memo.SetOpExpr)
		var remaining []memo.RelExpr
		for i, in := range e.Inputs {
			if !isEmpty(call, in) {
				remaining = append(remaining, in)
				continue
			}
			if e.Op() == opt.IntersectOp || (e.Op() == opt.ExceptOp && i == 0) {
				call.TransformTo(emptyLike(e))
				return
			}
		}
		switch {
		case len(remaining) == len(e.Inputs):
			return
		case len(remaining) == 0:
			call.TransformTo(emptyLike(e))
			return
		case len(remaining) == 1 && e.All:
			// A bag operation over one input returns that input.
			call.TransformTo(castTo(remaining[0], e.RowType(), false /* renameCols */))
			return
		}
		// The least restrictive column types may be narrower without the
		// pruned inputs.
		for i := range remaining {
			remaining[i] = castTo(remaining[i], e.RowType(), false /* renameCols */)
		}
		call.TransformTo(memo.NewSetOp(e.Op(), remaining, e.All).WithTraits(e.Traits()))
	},
)

func pruneEmptyInput(name string, op opt.Operator) rule.Rule {
	return rule.New(
		name,
		logical(op).WithChildren(rule.Op(opt.EmptyOp)),
		func(call rule.Call) {
			call.TransformTo(emptyLike(call.Binding(0)))
		},
	)
}

// PruneEmptyFilter replaces a filter of an empty input.
var PruneEmptyFilter = pruneEmptyInput(PruneEmptyFilterName, opt.FilterOp)

// PruneEmptyProject replaces a projection of an empty input.
var PruneEmptyProject = pruneEmptyInput(PruneEmptyProjectName, opt.ProjectOp)

// PruneEmptySample replaces a sample of an empty input.
var PruneEmptySample = pruneEmptyInput(PruneEmptySampleName, opt.SampleOp)

// PruneEmptyAggregate replaces a grouped aggregate of an empty input. An
// aggregate without grouping columns returns one row even for an empty input
// and is left alone.
var PruneEmptyAggregate = rule.New(
	PruneEmptyAggregateName,
	logical(opt.AggregateOp).WithPredicate(func(e memo.RelExpr) bool {
		return e.(*memo.AggregateExpr).GroupCount > 0
	}).WithChildren(rule.Op(opt.EmptyOp)),
	func(call rule.Call) {
		call.TransformTo(emptyLike(call.Binding(0)))
	},
)

// PruneEmptyJoin replaces a join that cannot return rows: an inner join
// with an empty input, or an outer join whose preserved side is empty.
var PruneEmptyJoin = rule.New(
	PruneEmptyJoinName,
	logical(opt.JoinOp),
	func(call rule.Call) {
		j := call.Binding(0).(*memo.JoinExpr)
		leftEmpty := isEmpty(call, j.Left)
		rightEmpty := isEmpty(call, j.Right)
		var empty bool
		switch j.JoinType {
		case memo.InnerJoin:
			empty = leftEmpty || rightEmpty
		case memo.LeftJoin:
			empty = leftEmpty
		case memo.RightJoin:
			empty = rightEmpty
		case memo.FullJoin:
			empty = leftEmpty && rightEmpty
		}
		if empty {
			call.TransformTo(emptyLike(j))
		}
	},
)
