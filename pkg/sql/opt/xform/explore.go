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

package xform

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/util/log"
)

// explore fires rules until a pass over every member of every set finds no
// binding that has not been fired yet, or the budget runs out. A binding is
// identified by the rule and the digests of the bound expressions, so a rule
// fires again on an expression only after one of its inputs changed.
func (o *Optimizer) explore() {
	rules := o.allRules()
	o.processEvents()
	for {
		progress := false
		for _, set := range o.mem.Sets() {
			for _, mem := range set.Members() {
				for _, r := range rules {
					if mem.Dead() {
						break
					}
					for _, b := range rule.Match(r.Operand(), mem.Expr(), o.mem.Expand) {
						key := rule.Fingerprint(r, b)
						if _, ok := o.fired[key]; ok {
							continue
						}
						if o.outOfBudget() {
							return
						}
						o.fired[key] = struct{}{}
						o.steps++
						o.fire(r, b)
						o.processEvents()
						progress = true
					}
				}
			}
		}
		if !progress {
			return
		}
	}
}

// allRules returns the registered rules plus the rule that expands abstract
// converters.
func (o *Optimizer) allRules() []rule.Rule {
	rules := append([]rule.Rule(nil), o.rules.Rules()...)
	if o.settings.AbstractConverters {
		rules = append(rules, o.expandConversionRule())
	}
	return rules
}

// fire calls the rule with one binding and registers what it proposes.
func (o *Optimizer) fire(r rule.Rule, bindings []memo.RelExpr) {
	digests := make([]string, len(bindings))
	for i, e := range bindings {
		digests[i] = memo.Digest(e)
	}

	call := &ruleCall{o: o, rule: r, bindings: bindings}
	call.ctx = logtags.AddTag(o.ctx, "rule", r.Name())
	r.OnMatch(call)

	for i, e := range bindings {
		if d := memo.Digest(e); d != digests[i] {
			panic(errors.AssertionFailedf("rule %s modified bound expression %s into %s",
				errors.Safe(r.Name()), digests[i], d))
		}
	}

	o.stats.Record(r.Name(), call.transformed)
	if o.appliedRule != nil {
		o.appliedRule(r.Name(), bindings[0], call.target)
	}
	if o.metrics != nil {
		o.metrics.Steps.Inc()
		o.metrics.RuleAttempts.WithLabelValues(r.Name()).Inc()
		if call.transformed {
			o.metrics.RuleFires.WithLabelValues(r.Name()).Inc()
		}
	}
}

// ruleCall implements rule.Call for the cost-based optimizer.
type ruleCall struct {
	o           *Optimizer
	ctx         context.Context
	rule        rule.Rule
	bindings    []memo.RelExpr
	transformed bool
	target      memo.RelExpr
}

var _ rule.Call = &ruleCall{}

// Context is part of the rule.Call interface.
func (c *ruleCall) Context() context.Context { return c.ctx }

// Rule is part of the rule.Call interface.
func (c *ruleCall) Rule() rule.Rule { return c.rule }

// Binding is part of the rule.Call interface.
func (c *ruleCall) Binding(nth int) memo.RelExpr { return c.bindings[nth] }

// Bindings is part of the rule.Call interface.
func (c *ruleCall) Bindings() []memo.RelExpr { return c.bindings }

// TransformTo is part of the rule.Call interface. The expression joins the
// set of the first bound expression.
func (c *ruleCall) TransformTo(e memo.RelExpr) {
	if c.transformed {
		panic(errors.AssertionFailedf("rule %s transformed its binding twice", errors.Safe(c.rule.Name())))
	}
	c.transformed = true
	c.target = e
	mem := c.o.mem.MemberOf(c.bindings[0])
	if mem == nil {
		panic(errors.AssertionFailedf("binding of rule %s is not in the memo", errors.Safe(c.rule.Name())))
	}
	sub := c.o.mem.Register(e, mem.Set().ID())
	log.VEventf(c.ctx, 2, "%s: %s -> subset %d", c.rule.Name(), mem.Digest(), sub.ID())
}

// Convert is part of the rule.Call interface.
func (c *ruleCall) Convert(e memo.RelExpr, traits physical.TraitSet) memo.RelExpr {
	return c.o.convert(c, e, traits)
}

// Expand is part of the rule.Call interface.
func (c *ruleCall) Expand(e memo.RelExpr) []memo.RelExpr { return c.o.mem.Expand(e) }

// RowCount is part of the rule.Call interface.
func (c *ruleCall) RowCount(e memo.RelExpr) float64 { return c.o.mem.RowCount(e) }
