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

// Package norm holds logical rewrite rules. Every rule here is a monotonic
// improvement on its own, so the rules can be applied by the heuristic
// engine as well as explored by the cost-based one.
package norm

import (
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
)

// Rule names.
const (
	UnionEliminatorName           = "UnionEliminator"
	PullUpAggregateAboveUnionName = "PullUpAggregateAboveUnion"
	PushProjectPastSetOpName      = "PushProjectPastSetOp"
	EliminateTrueFilterName       = "EliminateTrueFilter"
	EliminateIdentityProjectName  = "EliminateIdentityProject"
	PruneEmptySetOpName           = "PruneEmptySetOp"
	PruneEmptyFilterName          = "PruneEmptyFilter"
	PruneEmptyProjectName         = "PruneEmptyProject"
	PruneEmptySampleName          = "PruneEmptySample"
	PruneEmptyJoinName            = "PruneEmptyJoin"
	PruneEmptyAggregateName       = "PruneEmptyAggregate"
)

// UnionEliminator replaces a UNION ALL of a single input by that input. A
// distinct union of one input still removes duplicates and is kept.
var UnionEliminator = rule.New(
	UnionEliminatorName,
	logical(opt.UnionOp).WithPredicate(func(e memo.RelExpr) bool {
		return e.ChildCount() == 1 && e.(*memo.SetOpExpr).All
	}),
	func(call rule.Call) {
		call.TransformTo(call.Binding(0).Child(0))
	},
)

// EliminateTrueFilter replaces a filter whose condition is the constant true
// by its input.
var EliminateTrueFilter = rule.New(
	EliminateTrueFilterName,
	logical(opt.FilterOp).WithPredicate(func(e memo.RelExpr) bool {
		return opt.IsTrue(e.(*memo.FilterExpr).Condition)
	}),
	func(call rule.Call) {
		call.TransformTo(call.Binding(0).Child(0))
	},
)

// EliminateIdentityProject replaces a projection that returns its input
// unchanged by its input.
var EliminateIdentityProject = rule.New(
	EliminateIdentityProjectName,
	logical(opt.ProjectOp).WithPredicate(func(e memo.RelExpr) bool {
		return e.(*memo.ProjectExpr).IsIdentity()
	}),
	func(call rule.Call) {
		call.TransformTo(call.Binding(0).Child(0))
	},
)

// Rules returns every rule of the package, in the order the heuristic
// engine applies them by default.
func Rules() []rule.Rule {
	return []rule.Rule{
		PruneEmptySetOp,
		PruneEmptyFilter,
		PruneEmptyProject,
		PruneEmptySample,
		PruneEmptyJoin,
		PruneEmptyAggregate,
		EliminateTrueFilter,
		EliminateIdentityProject,
		UnionEliminator,
		PullUpAggregateAboveUnion,
		PushProjectPastSetOp,
		CoerceInputs(opt.UnionOp, false /* coerceNames */),
		CoerceInputs(opt.IntersectOp, false /* coerceNames */),
		CoerceInputs(opt.ExceptOp, false /* coerceNames */),
		CoerceInputs(opt.TableModifyOp, false /* coerceNames */),
	}
}
