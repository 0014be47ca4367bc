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

package rule

import (
	"fmt"
	"strings"

	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// Operand is one node of a rule pattern.
type Operand struct {
	// Op is the operator the expression must have, or opt.AnyOp.
	Op opt.Operator

	// Trait, if not nil, must be the trait of the expression in its dimension.
	Trait physical.Trait

	// Children, if not nil, match the inputs of the expression one by one; the
	// expression must have exactly that many inputs. A nil slice places no
	// constraint on the inputs.
	Children []*Operand

	// Predicate, if not nil, must return true for the expression.
	Predicate func(e memo.RelExpr) bool
}

// Op returns an operand matching op with the given children.
func Op(op opt.Operator, children ...*Operand) *Operand {
	if children == nil {
		children = []*Operand{}
	}
	return &Operand{Op: op, Children: children}
}

// OpAny returns an operand matching op with any inputs.
func OpAny(op opt.Operator) *Operand {
	return &Operand{Op: op}
}

// Any returns an operand matching any expression.
func Any() *Operand {
	return &Operand{Op: opt.AnyOp}
}

// WithTrait returns a copy of o that also requires t.
func (o *Operand) WithTrait(t physical.Trait) *Operand {
	cp := *o
	cp.Trait = t
	return &cp
}

// WithChildren returns a copy of o whose inputs must match children one by
// one.
func (o *Operand) WithChildren(children ...*Operand) *Operand {
	cp := *o
	cp.Children = append([]*Operand{}, children...)
	return &cp
}

// WithPredicate returns a copy of o that also requires p.
func (o *Operand) WithPredicate(p func(e memo.RelExpr) bool) *Operand {
	cp := *o
	cp.Predicate = p
	return &cp
}

// Count returns the number of operands in the pattern rooted at o.
func (o *Operand) Count() int {
	n := 1
	for _, c := range o.Children {
		n += c.Count()
	}
	return n
}

// MatchesNode tests the expression itself, ignoring its inputs.
func (o *Operand) MatchesNode(e memo.RelExpr) bool {
	if o.Op != opt.AnyOp && o.Op != e.Op() {
		return false
	}
	if o.Trait != nil && !e.Traits().Contains(o.Trait) {
		return false
	}
	if o.Children != nil && len(o.Children) != e.ChildCount() {
		return false
	}
	return o.Predicate == nil || o.Predicate(e)
}

func (o *Operand) String() string {
	var b strings.Builder
	o.format(&b)
	return b.String()
}

func (o *Operand) format(b *strings.Builder) {
	if o.Op == opt.AnyOp {
		b.WriteString("*")
	} else {
		b.WriteString(o.Op.String())
	}
	if o.Trait != nil {
		fmt.Fprintf(b, ".%s", o.Trait)
	}
	if o.Children == nil {
		return
	}
	b.WriteByte('(')
	for i, c := range o.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		c.format(b)
	}
	b.WriteByte(')')
}

// Expander returns the expressions a child reference stands for. The
// cost-based engine expands a placeholder into the members of its subset; the
// heuristic engine expands a vertex into its current expression.
type Expander func(e memo.RelExpr) []memo.RelExpr

// Match returns every binding of the pattern rooted at o to the expression e.
// A binding lists the bound expressions in pre-order of the pattern. Matching
// has no side effects.
func Match(o *Operand, e memo.RelExpr, expand Expander) [][]memo.RelExpr {
	if !o.MatchesNode(e) {
		return nil
	}
	res := [][]memo.RelExpr{{e}}
	for i, child := range o.Children {
		var childBindings [][]memo.RelExpr
		for _, alt := range expand(e.Child(i)) {
			childBindings = append(childBindings, Match(child, alt, expand)...)
		}
		if len(childBindings) == 0 {
			return nil
		}
		// Cross product of the bindings so far with those of this input.
		next := make([][]memo.RelExpr, 0, len(res)*len(childBindings))
		for _, prefix := range res {
			for _, cb := range childBindings {
				b := make([]memo.RelExpr, 0, len(prefix)+len(cb))
				b = append(b, prefix...)
				next = append(next, append(b, cb...))
			}
		}
		res = next
	}
	return res
}
