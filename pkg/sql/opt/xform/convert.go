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
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/util/log"
)

// ExpandConversionRuleName is the name of the rule that replaces abstract
// converters with chains of concrete ones.
const ExpandConversionRuleName = "ExpandConversion"

// convert returns the placeholder of the subset of e's set that provides
// traits, after trying to populate it. In order:
//
//  1. if the subset already has a member, nothing more is needed;
//  2. converter rules from the traits of e's subset to traits are applied
//     to the members of that subset;
//  3. if the conversion graph can bridge the two trait sets, an abstract
//     converter is added, to be expanded once e's subset has a member.
//
// The placeholder is returned even if the subset is still empty, since rules
// fired later may populate it. If it stays empty, extraction fails. A
// conversion requested while the same conversion is in progress returns the
// placeholder right away.
func (o *Optimizer) convert(call rule.Call, e memo.RelExpr, traits physical.TraitSet) memo.RelExpr {
	if e.Traits() == traits {
		return e
	}
	var from *memo.Subset
	if ph, ok := e.(*memo.SubsetExpr); ok {
		from = o.mem.SubsetOf(ph)
	} else {
		from = o.mem.Register(e, 0)
	}
	set := from.Set()
	target := o.mem.EnsureSubset(set.ID(), traits)
	o.mem.MarkRequired(target)
	if len(target.Members()) > 0 {
		return target.Placeholder()
	}
	key := [2]*memo.Subset{from, target}
	if _, ok := o.converting[key]; ok {
		return target.Canonical().Placeholder()
	}
	o.converting[key] = struct{}{}
	defer delete(o.converting, key)

	for _, cr := range o.rules.ConverterRules() {
		if !traits.Contains(cr.Out()) || !from.Traits().Contains(cr.In()) {
			continue
		}
		if from.Traits().Replace(cr.Out()) != traits {
			continue
		}
		for _, mem := range from.Members() {
			if res := cr.Convert(call, mem.Expr()); res != nil {
				o.mem.Register(res, set.ID())
			}
		}
	}
	if len(target.Members()) == 0 {
		o.addAbstractConverter(from, target)
	}
	return target.Canonical().Placeholder()
}

// processEvents adds abstract converters between the subsets of each set
// that gained a subset or a required subset.
func (o *Optimizer) processEvents() {
	for {
		events := o.mem.DrainEvents()
		if len(events) == 0 {
			return
		}
		for _, sub := range events {
			sub = sub.Canonical()
			for _, other := range sub.Set().Subsets() {
				if other == sub {
					continue
				}
				if other.Required() {
					o.addAbstractConverter(sub, other)
				}
				if sub.Required() {
					o.addAbstractConverter(other, sub)
				}
			}
		}
	}
}

func (o *Optimizer) addAbstractConverter(from, to *memo.Subset) {
	if !o.settings.AbstractConverters || !o.graph.CanConvert(from.Traits(), to.Traits()) {
		return
	}
	ac := memo.NewAbstractConverter(from.Placeholder(), to.Traits())
	if o.mem.Lookup(ac) != nil {
		return
	}
	o.mem.Register(ac, from.Set().ID())
	log.VEventf(o.ctx, 2, "abstract converter from subset %d to subset %d", from.ID(), to.ID())
}

// expandConversionRule replaces an abstract converter by the shortest chain
// of concrete converters, once the subset it converts from has a member that
// is not itself an abstract converter. Each intermediate converter joins the
// same set, in the subset of its own traits.
func (o *Optimizer) expandConversionRule() rule.Rule {
	concrete := rule.Any().WithPredicate(func(e memo.RelExpr) bool {
		return e.Op() != opt.AbstractConverterOp
	})
	return rule.New(ExpandConversionRuleName, rule.Op(opt.AbstractConverterOp, concrete),
		func(call rule.Call) {
			ac := call.Binding(0).(*memo.AbstractConverterExpr)
			from := o.mem.SubsetOf(ac.Input.(*memo.SubsetExpr))
			chain := o.graph.Chain(from.Traits(), ac.Traits())
			if len(chain) == 0 {
				return
			}
			set := from.Set().ID()
			cur := memo.RelExpr(from.Placeholder())
			for i, traits := range chain {
				var conv memo.RelExpr
				for _, def := range cur.Traits().Diff(traits) {
					conv = memo.NewConverter(cur, traits.Get(def))
				}
				if i == len(chain)-1 {
					call.TransformTo(conv)
					return
				}
				cur = o.mem.Register(conv, set).Placeholder()
			}
		})
}
