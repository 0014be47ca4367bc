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

// Package xform implements the cost-based optimizer: it stores a relational
// expression in a memo, fires rules until no rule proposes anything new or
// the budget runs out, and extracts the cheapest plan that provides the
// required traits.
package xform

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/convert"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/util/log"
)

// optimizationCount numbers optimizations for log tags.
var optimizationCount int64

// budgetLogEvery rate limits warnings about exhausted budgets.
var budgetLogEvery = log.Every(10 * time.Second)

// Optimizer runs one cost-based optimization. Rules and the conversion graph
// may be shared by concurrent optimizers, but an Optimizer itself may not.
type Optimizer struct {
	settings Settings
	rules    *rule.Registry
	graph    *convert.Graph
	metrics  *Metrics

	ctx   context.Context
	mem   *memo.Memo
	root  *memo.Subset
	fired map[string]struct{}
	stats rule.StatsCollector
	steps int

	// converting holds the (from, to) subset pairs of the conversions in
	// progress. A converter rule that converts the inputs of an expression
	// may ask for the conversion it is part of.
	converting map[[2]*memo.Subset]struct{}

	budgetExhausted bool
	appliedRule     AppliedRuleFunc
}

// AppliedRuleFunc is called after a rule was fired on source. target is the
// expression the rule proposed, or nil if it declined.
type AppliedRuleFunc func(ruleName string, source, target memo.RelExpr)

// New returns an optimizer that applies rules. Conversions between traits
// are limited to those in graph; a nil graph allows none.
func New(rules *rule.Registry, graph *convert.Graph, settings Settings) *Optimizer {
	if graph == nil {
		graph = convert.NewGraph()
	}
	if settings.MaxSteps <= 0 {
		settings.MaxSteps = DefaultMaxSteps
	}
	return &Optimizer{
		settings: settings,
		rules:    rules,
		graph:    graph,
	}
}

// SetMetrics makes the optimizer record into m.
func (o *Optimizer) SetMetrics(m *Metrics) {
	o.metrics = m
}

// NotifyOnAppliedRule sets a callback invoked after every rule firing.
func (o *Optimizer) NotifyOnAppliedRule(fn AppliedRuleFunc) {
	o.appliedRule = fn
}

// Memo returns the memo of the last optimization.
func (o *Optimizer) Memo() *memo.Memo { return o.mem }

// RuleStats returns the per-rule statistics of the last optimization.
func (o *Optimizer) RuleStats() *rule.StatsCollector { return &o.stats }

// Steps returns the number of rule firings of the last optimization.
func (o *Optimizer) Steps() int { return o.steps }

// BudgetExhausted returns true if the last optimization stopped before
// reaching a fix point.
func (o *Optimizer) BudgetExhausted() bool { return o.budgetExhausted }

// Optimize returns the cheapest plan equivalent to root that provides the
// required traits. Exploration stops at a fix point, after MaxSteps rule
// firings, or when ctx is done, whichever happens first; the best plan found
// by then is returned. The error is a *NoPlanError if no plan was found, and
// an assertion failure (see IsInternalError) if an invariant was violated.
func (o *Optimizer) Optimize(
	ctx context.Context, root memo.RelExpr, required physical.TraitSet,
) (plan memo.RelExpr, err error) {
	ctx = logtags.AddTag(ctx, "opt", atomic.AddInt64(&optimizationCount, 1))
	o.ctx = ctx
	o.mem = memo.New(o.settings.Coster, o.settings.CostModel, o.settings.TieBreak)
	o.fired = make(map[string]struct{})
	o.converting = make(map[[2]*memo.Subset]struct{})
	o.stats = rule.StatsCollector{}
	o.steps = 0
	o.budgetExhausted = false
	o.mem.OnMerge = func(kept, merged memo.SetID) {
		log.VEventf(ctx, 1, "merged set %d into set %d", merged, kept)
		if o.metrics != nil {
			o.metrics.Merges.Inc()
		}
	}

	defer func() {
		if r := recover(); r != nil {
			plan, err = nil, opt.CatchOptimizerError(r)
		}
		o.recordResult(err)
	}()

	rootSub := o.mem.Register(root, 0)
	o.root = o.mem.EnsureSubset(rootSub.Set().ID(), required)
	o.mem.MarkRequired(o.root)

	o.explore()

	return o.extract(o.root)
}

func (o *Optimizer) recordResult(err error) {
	if o.metrics == nil {
		return
	}
	result := "ok"
	if IsNoPlan(err) {
		result = "no_plan"
	} else if err != nil {
		result = "internal_error"
	}
	o.metrics.Optimizations.WithLabelValues(result).Inc()
	if o.mem != nil {
		o.metrics.MemoMembers.Observe(float64(o.mem.Stats().Members))
	}
}

// outOfBudget returns true, once for good, when no more rules may fire.
func (o *Optimizer) outOfBudget() bool {
	if o.budgetExhausted {
		return true
	}
	if o.steps < o.settings.MaxSteps && o.ctx.Err() == nil {
		return false
	}
	o.budgetExhausted = true
	if budgetLogEvery.ShouldLog() {
		if err := o.ctx.Err(); err != nil {
			log.Warningf(o.ctx, "optimization stopped after %d steps: %v", o.steps, err)
		} else {
			log.Warningf(o.ctx, "optimization stopped after %d steps: step budget exhausted", o.steps)
		}
	}
	return true
}
