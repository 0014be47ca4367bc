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

// Package ruleset names the rules and conversions the optimizers are
// configured with.
package ruleset

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/convert"
	"github.com/relopt/relopt/pkg/sql/opt/flatfile"
	"github.com/relopt/relopt/pkg/sql/opt/iter"
	"github.com/relopt/relopt/pkg/sql/opt/norm"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
)

// Default returns the rules used when none are configured: normalization,
// implementation in the iterator conventions, conversions between them and
// the flat file connector.
func Default() *rule.Registry {
	r, err := rule.NewRegistry(defaultRules()...)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "default rules"))
	}
	return r
}

// Normalization returns the rules that rewrite logical expressions into
// simpler logical expressions. They are the default program of the heuristic
// planner.
func Normalization() *rule.Registry {
	r, err := rule.NewRegistry(norm.Rules()...)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "normalization rules"))
	}
	return r
}

func defaultRules() []rule.Rule {
	var rules []rule.Rule
	rules = append(rules, norm.Rules()...)
	rules = append(rules, iter.Rules()...)
	rules = append(rules, iter.ConversionRules()...)
	rules = append(rules, flatfile.Rules()...)
	return rules
}

// All returns every known rule: the default rules followed by alternatives
// that are left out of the default set.
func All() *rule.Registry {
	r := Default()
	for _, extra := range []rule.Rule{
		iter.HomogeneousUnionToConcatenate,
		norm.CoerceInputs(opt.UnionOp, true),
		norm.CoerceInputs(opt.IntersectOp, true),
		norm.CoerceInputs(opt.ExceptOp, true),
	} {
		if err := r.Add(extra); err != nil {
			panic(errors.NewAssertionErrorWithWrappedErrf(err, "extra rules"))
		}
	}
	return r
}

// Select returns the named rules, in the order given.
func Select(names ...string) (*rule.Registry, error) {
	return All().Select(names...)
}

// Graph returns a conversion graph holding conversions, given as pairs of
// conventions. If none are given, the default conversions between the
// iterator conventions are used.
func Graph(conversions ...[2]string) (*convert.Graph, error) {
	g := convert.NewGraph()
	if len(conversions) == 0 {
		return g, iter.DefaultConversions(g)
	}
	for _, c := range conversions {
		if err := g.AddConversion(physical.Convention(c[0]), physical.Convention(c[1])); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ParseConversion parses a conversion written FROM->TO.
func ParseConversion(s string) ([2]string, error) {
	from, to, ok := strings.Cut(s, "->")
	if !ok || from == "" || to == "" {
		return [2]string{}, errors.Newf("conversion %q must be written FROM->TO", s)
	}
	return [2]string{strings.TrimSpace(from), strings.TrimSpace(to)}, nil
}
