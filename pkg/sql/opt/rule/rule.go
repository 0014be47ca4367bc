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

// Package rule defines the rewrite rules both optimizer engines apply: a rule
// is a pattern of operands plus a callback that is invoked with the
// expressions bound by each match and may propose one equivalent expression.
package rule

import (
	"context"
	"strings"

	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// Rule is a transformation rule. Rules are stateless and may be shared by
// concurrent optimizations.
type Rule interface {
	// Name identifies the rule in logs, statistics and fix-point bookkeeping.
	// It must be unique within a registry.
	Name() string

	// Operand returns the root of the pattern the rule matches.
	Operand() *Operand

	// OnMatch is called for every binding of the pattern. It either calls
	// TransformTo once with an equivalent expression or returns without doing
	// anything, which declines the match. It must not modify the bound
	// expressions.
	OnMatch(call Call)
}

// Call is what a rule sees of the engine while it is being fired.
type Call interface {
	// Context returns the context of the optimization.
	Context() context.Context

	// Rule returns the rule being fired.
	Rule() Rule

	// Binding returns the expression bound to the nth operand of the pattern,
	// in pre-order.
	Binding(nth int) memo.RelExpr

	// Bindings returns all bound expressions in pre-order.
	Bindings() []memo.RelExpr

	// TransformTo proposes e as equivalent to Binding(0). It may be called at
	// most once per call.
	TransformTo(e memo.RelExpr)

	// Convert returns an expression equivalent to e that provides traits, or
	// nil if the engine cannot produce one.
	Convert(e memo.RelExpr, traits physical.TraitSet) memo.RelExpr

	// Expand returns the alternatives a child reference stands for.
	Expand(e memo.RelExpr) []memo.RelExpr

	// RowCount returns the estimated row count of e.
	RowCount(e memo.RelExpr) float64
}

// funcRule is a Rule built from a function.
type funcRule struct {
	name    string
	operand *Operand
	onMatch func(call Call)
}

// New returns a rule that calls onMatch for every binding of operand.
func New(name string, operand *Operand, onMatch func(call Call)) Rule {
	return &funcRule{name: name, operand: operand, onMatch: onMatch}
}

func (r *funcRule) Name() string      { return r.name }
func (r *funcRule) Operand() *Operand { return r.operand }
func (r *funcRule) OnMatch(call Call) { r.onMatch(call) }

// Fingerprint identifies one firing of r: the rule name plus the digests of
// the bound expressions. An engine that has fired a fingerprint does not fire
// it again, which is what makes rules whose output matches their own pattern
// terminate.
func Fingerprint(r Rule, bindings []memo.RelExpr) string {
	var b strings.Builder
	b.WriteString(r.Name())
	for _, e := range bindings {
		b.WriteByte('|')
		b.WriteString(memo.Digest(e))
	}
	return b.String()
}
