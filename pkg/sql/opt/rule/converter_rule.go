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
	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// ConverterRule changes one trait of an expression: it matches expressions
// that provide In and proposes an equivalent one that provides Out. Besides
// being fired like any other rule, converter rules are consulted directly
// when a consumer asks for an input in the Out trait.
type ConverterRule struct {
	name    string
	operand *Operand
	in, out physical.Trait
	convert func(call Call, e memo.RelExpr) memo.RelExpr
}

var _ Rule = &ConverterRule{}

// NewConverterRule returns a converter rule for expressions with operator op
// (opt.AnyOp for all operators). convert returns the converted expression,
// or nil to decline.
func NewConverterRule(
	name string,
	op opt.Operator,
	in, out physical.Trait,
	convert func(call Call, e memo.RelExpr) memo.RelExpr,
) *ConverterRule {
	if in.Def() != out.Def() {
		panic(errors.AssertionFailedf("converter rule %s changes two trait dimensions", name))
	}
	return &ConverterRule{
		name:    name,
		operand: (&Operand{Op: op}).WithTrait(in),
		in:      in,
		out:     out,
		convert: convert,
	}
}

// Name is part of the Rule interface.
func (r *ConverterRule) Name() string { return r.name }

// Operand is part of the Rule interface.
func (r *ConverterRule) Operand() *Operand { return r.operand }

// In returns the trait the rule converts from.
func (r *ConverterRule) In() physical.Trait { return r.in }

// Out returns the trait the rule converts to.
func (r *ConverterRule) Out() physical.Trait { return r.out }

// OnMatch is part of the Rule interface.
func (r *ConverterRule) OnMatch(call Call) {
	if e := r.Convert(call, call.Binding(0)); e != nil {
		call.TransformTo(e)
	}
}

// Convert applies the rule to e, which must match the rule's operand. It
// returns nil if the rule declines.
func (r *ConverterRule) Convert(call Call, e memo.RelExpr) memo.RelExpr {
	if !r.operand.MatchesNode(e) {
		return nil
	}
	res := r.convert(call, e)
	if res != nil && !res.Traits().Contains(r.out) {
		panic(errors.AssertionFailedf("converter rule %s produced %s instead of %s", r.name, res.Traits(), r.out))
	}
	return res
}
