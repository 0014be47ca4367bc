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

package hep

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// VertexID identifies a vertex of the planner graph. IDs start at 1.
type VertexID int32

// vertex holds the current expression at one position of the graph. The
// inputs of the expression are *VertexExpr placeholders. A vertex that turned
// out to be a duplicate of another one forwards to it.
type vertex struct {
	id      VertexID
	forward VertexID
	payload memo.RelExpr
	digest  string
	rowType opt.RowType
	ph      *VertexExpr
}

// VertexExpr stands for the current expression of a vertex. Its traits are
// those of that expression, so they change when the expression is replaced.
type VertexExpr struct {
	id VertexID
	p  *Planner
}

var _ memo.RelExpr = &VertexExpr{}

// ID returns the vertex the placeholder was created for.
func (e *VertexExpr) ID() VertexID { return e.id }

// Current returns the expression the vertex holds now.
func (e *VertexExpr) Current() memo.RelExpr { return e.p.canonical(e.id).payload }

// Op is part of the RelExpr interface.
func (e *VertexExpr) Op() opt.Operator { return opt.VertexOp }

// Traits is part of the RelExpr interface.
func (e *VertexExpr) Traits() physical.TraitSet { return e.Current().Traits() }

// RowType is part of the RelExpr interface.
func (e *VertexExpr) RowType() opt.RowType { return e.p.canonical(e.id).rowType }

// ChildCount is part of the RelExpr interface.
func (e *VertexExpr) ChildCount() int { return 0 }

// Child is part of the RelExpr interface.
func (e *VertexExpr) Child(nth int) memo.RelExpr {
	panic(errors.AssertionFailedf("vertex has no children"))
}

// Private is part of the RelExpr interface.
func (e *VertexExpr) Private() string { return fmt.Sprintf("#%d", e.id) }

// SelfCost is part of the RelExpr interface.
func (e *VertexExpr) SelfCost(md memo.Metadata) memo.Cost {
	return e.Current().SelfCost(md)
}

// WithChildren is part of the RelExpr interface.
func (e *VertexExpr) WithChildren(children []memo.RelExpr) memo.RelExpr {
	if len(children) != 0 {
		panic(errors.AssertionFailedf("vertex expects no children, got %d", len(children)))
	}
	return e
}

// WithTraits is part of the RelExpr interface.
func (e *VertexExpr) WithTraits(traits physical.TraitSet) memo.RelExpr {
	panic(errors.AssertionFailedf("cannot change the traits of vertex #%d", errors.Safe(e.id)))
}
