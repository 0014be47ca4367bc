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
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/util/log"
)

// extract builds the plan rooted at the best member of sub, replacing each
// placeholder by the plan of its own subset.
func (o *Optimizer) extract(sub *memo.Subset) (memo.RelExpr, error) {
	visiting := make(map[*memo.Subset]bool)
	var build func(sub *memo.Subset) (memo.RelExpr, error)
	build = func(sub *memo.Subset) (memo.RelExpr, error) {
		sub = sub.Canonical()
		best, _ := sub.Best()
		if best == nil {
			err := o.noPlan(sub)
			log.VEventf(o.ctx, 1, "%v", err)
			return nil, err
		}
		if best.Expr().Op() == opt.AbstractConverterOp {
			panic(errors.AssertionFailedf("abstract converter is the best member of subset %d",
				errors.Safe(sub.ID())))
		}
		if visiting[sub] {
			panic(errors.AssertionFailedf("best plan of subset %d refers to itself", errors.Safe(sub.ID())))
		}
		visiting[sub] = true
		defer delete(visiting, sub)

		e := best.Expr()
		n := e.ChildCount()
		if n == 0 {
			return e, nil
		}
		children := make([]memo.RelExpr, n)
		for i := range children {
			child, err := build(o.mem.SubsetOf(e.Child(i).(*memo.SubsetExpr)))
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		return e.WithChildren(children), nil
	}
	return build(sub)
}

// noPlan describes why sub has no best member.
func (o *Optimizer) noPlan(sub *memo.Subset) *NoPlanError {
	set := sub.Set()
	err := &NoPlanError{
		Required:        sub.Traits(),
		BudgetExhausted: o.budgetExhausted,
	}
	if members := set.Members(); len(members) > 0 {
		err.SetDigest = members[0].Digest()
	}
	concrete := 0
	for _, mem := range sub.Members() {
		if mem.Expr().Op() != opt.AbstractConverterOp {
			concrete++
		}
	}
	switch {
	case concrete > 0:
		err.Reason = "no member can be implemented"
	case o.hasConversionSource(sub):
		err.Reason = "no member to convert from has been implemented"
	default:
		provided := ""
		for _, other := range set.Subsets() {
			if other != sub && len(other.Members()) > 0 {
				if provided != "" {
					provided += ", "
				}
				provided += other.Traits().String()
			}
		}
		err.Reason = fmt.Sprintf("no conversion from [%s]", provided)
	}
	return err
}

func (o *Optimizer) hasConversionSource(sub *memo.Subset) bool {
	if !o.settings.AbstractConverters {
		return false
	}
	for _, other := range sub.Set().Subsets() {
		if other != sub && len(other.Members()) > 0 && o.graph.CanConvert(other.Traits(), sub.Traits()) {
			return true
		}
	}
	return false
}
