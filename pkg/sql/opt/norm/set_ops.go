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
	"github.com/relopt/relopt/pkg/sql/opt/rule"
)

// PullUpAggregateAboveUnion matches
//
//	(Aggregate (Union (Aggregate X) Y))
//
// where both aggregates only eliminate duplicates and the union keeps them.
// The inner duplicate elimination is redundant, so the result is
//
//	(Aggregate (UnionAll X Y))
//
// Both union inputs are checked, so a distinct on either side is removed.
var PullUpAggregateAboveUnion = rule.New(
	PullUpAggregateAboveUnionName,
	logical(opt.AggregateOp).WithPredicate(func(e memo.RelExpr) bool {
		return len(e.(*memo.AggregateExpr).Aggs) == 0
	}).WithChildren(
		logical(opt.UnionOp).WithPredicate(func(e memo.RelExpr) bool {
			return e.(*memo.SetOpExpr).All
		}).WithChildren(rule.Any(), rule.Any()),
	),
	func(call rule.Call) {
		top := call.Binding(0).(*memo.AggregateExpr)
		union := call.Binding(1).(*memo.SetOpExpr)
		inputs := make([]memo.RelExpr, len(union.Inputs))
		pulled := false
		for i := range union.Inputs {
			inputs[i] = union.Inputs[i]
			if in := call.Binding(2 + i); isDistinct(in) {
				inputs[i] = in.(*memo.AggregateExpr).Input
				pulled = true
			}
		}
		if !pulled {
			return
		}
		newUnion := memo.NewUnion(inputs, true /* all */).WithTraits(union.Traits())
		call.TransformTo(memo.NewAggregate(newUnion, top.GroupCount, nil).WithTraits(top.Traits()))
	},
)

// PushProjectPastSetOp matches a projection over a UNION ALL and pushes it
// into every input:
//
//	(Project (UnionAll X Y) exprs)
//	=>
//	(UnionAll (Project X exprs) (Project Y exprs))
//
// The inputs of a set operation share the column positions of its output, so
// the projection applies to each input unchanged. Distinct set operations,
// INTERSECT ALL and EXCEPT ALL compare whole rows, so projecting their inputs
// would change their result.
var PushProjectPastSetOp = rule.New(
	PushProjectPastSetOpName,
	logical(opt.ProjectOp).WithChildren(
		logical(opt.UnionOp).WithPredicate(func(e memo.RelExpr) bool {
			return e.(*memo.SetOpExpr).All
		}),
	),
	func(call rule.Call) {
		project := call.Binding(0).(*memo.ProjectExpr)
		union := call.Binding(1).(*memo.SetOpExpr)

		inputs := make([]memo.RelExpr, len(union.Inputs))
		for i, in := range union.Inputs {
			inputs[i] = memo.NewProject(in, project.Projections, project.Names)
		}
		call.TransformTo(memo.NewUnion(inputs, true /* all */).WithTraits(project.Traits()))
	},
)
