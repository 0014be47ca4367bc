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
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// RelExpr is implemented by every relational expression. Expressions are
// immutable once constructed: rewrites build new expressions instead of
// modifying existing ones, which is what allows the same expression to be
// shared between a rule's input and its output.
//
// Children of an expression stored in the memo are always *SubsetExpr
// placeholders. Children of expressions outside the memo may be arbitrary
// expressions; the memo registers them recursively.
type RelExpr interface {
	// Op returns the operator of the expression.
	Op() opt.Operator

	// Traits returns the physical properties the expression provides.
	Traits() physical.TraitSet

	// RowType returns the columns the expression produces. It is derived when
	// the expression is constructed and never changes afterwards.
	RowType() opt.RowType

	// ChildCount returns the number of relational inputs.
	ChildCount() int

	// Child returns the nth relational input.
	Child(nth int) RelExpr

	// Private formats the operator-specific fields of the expression, or
	// returns "" if it has none. Together with the operator, traits and
	// children it makes up the digest, so it must not depend on the identity
	// of the expression.
	Private() string

	// SelfCost returns the cost of the expression excluding its inputs.
	SelfCost(md Metadata) Cost

	// WithChildren returns a copy of the expression with the given inputs and
	// the same private fields, traits and row type.
	WithChildren(children []RelExpr) RelExpr

	// WithTraits returns a copy of the expression that provides traits.
	WithTraits(traits physical.TraitSet) RelExpr
}

// Metadata answers questions about expressions that the expressions cannot
// answer by themselves, such as the number of rows an input produces.
type Metadata interface {
	RowCount(e RelExpr) float64
}

// RowCounter may be implemented by expression variants defined outside this
// package to supply their own row count estimate.
type RowCounter interface {
	RowCount(md Metadata) float64
}

// Digest returns the semantic fingerprint of e. Two expressions with the
// same digest compute the same result with the same traits.
func Digest(e RelExpr) string {
	var b strings.Builder
	writeDigest(&b, e)
	return b.String()
}

func writeDigest(b *strings.Builder, e RelExpr) {
	writeHeader(b, e)
	if n := e.ChildCount(); n > 0 {
		b.WriteByte('[')
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			writeDigest(b, e.Child(i))
		}
		b.WriteByte(']')
	}
}

// writeHeader writes everything about e except its children.
func writeHeader(b *strings.Builder, e RelExpr) {
	b.WriteString(e.Op().String())
	b.WriteByte('.')
	b.WriteString(e.Traits().String())
	if p := e.Private(); p != "" {
		b.WriteByte('(')
		b.WriteString(p)
		b.WriteByte(')')
	}
}

// Children returns the inputs of e as a new slice.
func Children(e RelExpr) []RelExpr {
	res := make([]RelExpr, e.ChildCount())
	for i := range res {
		res[i] = e.Child(i)
	}
	return res
}

// checkChildCount panics if children does not have n elements.
func checkChildCount(e RelExpr, children []RelExpr, n int) {
	if len(children) != n {
		panic(errors.AssertionFailedf(
			"%s expects %d children, got %d", errors.Safe(e.Op()), n, len(children)))
	}
}

// Table is the catalog information the optimizer needs about a table.
type Table struct {
	Name     string
	Columns  opt.RowType
	RowCount float64
}
