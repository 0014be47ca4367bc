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

// logical returns an operand matching op in the None convention. Rules of
// this package only rewrite expressions that have not been implemented yet.
func logical(op opt.Operator) *rule.Operand {
	return rule.OpAny(op).WithTrait(physical.None)
}

// isEmpty returns true if e, or one of the alternatives it stands for, is
// known to return no rows.
func isEmpty(call rule.Call, e memo.RelExpr) bool {
	for _, alt := range call.Expand(e) {
		if alt.Op() == opt.EmptyOp {
			return true
		}
	}
	return false
}

// castTo returns input unchanged if its column types are already those of
// want, and otherwise a projection casting every column to the type of the
// corresponding column of want. Names are taken from want if renameCols is
// set, and kept otherwise.
func castTo(input memo.RelExpr, want opt.RowType, renameCols bool) memo.RelExpr {
	have := input.RowType()
	if have.IdenticalTypes(want) && (!renameCols || have.Equals(want)) {
		return input
	}
	projections := make([]opt.ScalarExpr, len(want))
	names := make([]string, len(want))
	for i := range want {
		projections[i] = opt.NewCast(opt.NewVariable(have, i), want[i].Type)
		if renameCols {
			names[i] = want[i].Name
		} else {
			names[i] = have[i].Name
		}
	}
	return memo.NewProject(input, projections, names)
}

// isDistinct returns true if e is an aggregate with no aggregate functions
// that groups on every input column, i.e. a plain duplicate elimination.
func isDistinct(e memo.RelExpr) bool {
	agg, ok := e.(*memo.AggregateExpr)
	return ok && len(agg.Aggs) == 0 && agg.GroupCount == len(agg.Input.RowType())
}

// emptyLike returns an empty expression with the row type and traits of e.
func emptyLike(e memo.RelExpr) memo.RelExpr {
	return memo.NewEmpty(e.RowType()).WithTraits(e.Traits())
}
