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

// Package iter implements logical expressions in a pull-based iterator
// calling convention, and declares the conventions that iterator plans can
// be converted to.
package iter

import (
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/convert"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
)

// Calling conventions.
const (
	// Iterator plans return their rows one at a time on demand.
	Iterator physical.Convention = "ITERATOR"
	// Collection plans materialize their rows into an unordered collection.
	Collection physical.Convention = "COLLECTION"
	// Array plans materialize their rows into an array.
	Array physical.Convention = "ARRAY"
)

// DefaultConversions adds the conversions between the iterator conventions
// to g.
func DefaultConversions(g *convert.Graph) error {
	for _, c := range [][2]physical.Convention{
		{Iterator, Collection},
		{Collection, Iterator},
		{Collection, Array},
	} {
		if err := g.AddConversion(c[0], c[1]); err != nil {
			return err
		}
	}
	return nil
}

// implementRule returns a converter rule that implements the logical op
// expressions matching pred in the Iterator convention, after converting
// their inputs to Iterator. It declines if an input cannot be converted.
func implementRule(
	name string, op opt.Operator, pred func(e memo.RelExpr) bool,
) *rule.ConverterRule {
	return rule.NewConverterRule(name, op, physical.None, Iterator,
		func(call rule.Call, e memo.RelExpr) memo.RelExpr {
			if pred != nil && !pred(e) {
				return nil
			}
			children, ok := convertChildren(call, e)
			if !ok {
				return nil
			}
			return e.WithChildren(children).WithTraits(e.Traits().Replace(Iterator))
		})
}

func convertChildren(call rule.Call, e memo.RelExpr) ([]memo.RelExpr, bool) {
	children := memo.Children(e)
	for i, c := range children {
		children[i] = call.Convert(c, c.Traits().Replace(Iterator))
		if children[i] == nil {
			return nil, false
		}
	}
	return children, true
}

// ImplementRule returns the rule implementing every op expression in the
// Iterator convention, with the same private fields.
func ImplementRule(op opt.Operator) *rule.ConverterRule {
	return implementRule("Implement("+op.String()+")", op, nil)
}

// OneRowToIterator implements the one-row expression.
var OneRowToIterator = implementRule("OneRowToIterator", opt.OneRowOp, nil)

// DistinctUnionToIterator implements a distinct union. Unions that keep
// duplicates are concatenations.
var DistinctUnionToIterator = implementRule("DistinctUnionToIterator", opt.UnionOp,
	func(e memo.RelExpr) bool { return !e.(*memo.SetOpExpr).All })

func unionToConcatenate(name string, pred func(u *memo.SetOpExpr) bool) *rule.ConverterRule {
	return rule.NewConverterRule(name, opt.UnionOp, physical.None, Iterator,
		func(call rule.Call, e memo.RelExpr) memo.RelExpr {
			u := e.(*memo.SetOpExpr)
			if !u.All || (pred != nil && !pred(u)) {
				return nil
			}
			children, ok := convertChildren(call, e)
			if !ok {
				return nil
			}
			return memo.NewConcatenate(children, u.Traits().Replace(Iterator))
		})
}

// UnionToConcatenate implements a UNION ALL as the concatenation of its
// inputs.
var UnionToConcatenate = unionToConcatenate("UnionToConcatenate", nil)

// HomogeneousUnionToConcatenate is UnionToConcatenate restricted to unions
// whose inputs all have exactly the union's row type, so that no input needs
// a cast.
var HomogeneousUnionToConcatenate = unionToConcatenate("HomogeneousUnionToConcatenate",
	(*memo.SetOpExpr).IsHomogeneous)

// Rules returns the implementation rules for every built-in logical
// operator. Unions that keep duplicates are implemented by
// UnionToConcatenate.
func Rules() []rule.Rule {
	res := []rule.Rule{UnionToConcatenate, DistinctUnionToIterator, OneRowToIterator}
	for _, op := range []opt.Operator{
		opt.ScanOp, opt.FilterOp, opt.ProjectOp, opt.JoinOp, opt.AggregateOp,
		opt.IntersectOp, opt.ExceptOp, opt.SampleOp, opt.TableFunctionOp,
		opt.TableModifyOp, opt.EmptyOp,
	} {
		res = append(res, ImplementRule(op))
	}
	return res
}

// ConversionRules returns converter rules for the default conversions. The
// optimizer consults them before falling back to abstract converters.
func ConversionRules() []rule.Rule {
	res := make([]rule.Rule, 0, 3)
	for _, c := range [][2]physical.Convention{
		{Iterator, Collection},
		{Collection, Iterator},
		{Collection, Array},
	} {
		to := c[1]
		res = append(res, rule.NewConverterRule(
			"Convert("+c[0].String()+","+to.String()+")", opt.AnyOp, c[0], to,
			func(call rule.Call, e memo.RelExpr) memo.RelExpr {
				return memo.NewConverter(e, to)
			}))
	}
	return res
}
