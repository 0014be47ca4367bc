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
	"sort"

	"github.com/cockroachdb/errors"
)

// Registry is an ordered set of rules with unique names.
type Registry struct {
	rules  []Rule
	byName map[string]Rule
}

// NewRegistry returns a registry holding rules.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{byName: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		if err := r.Add(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends a rule to the registry.
func (r *Registry) Add(rule Rule) error {
	if _, ok := r.byName[rule.Name()]; ok {
		return errors.Newf("duplicate rule %q", rule.Name())
	}
	r.byName[rule.Name()] = rule
	r.rules = append(r.rules, rule)
	return nil
}

// Rules returns the rules in the order they were added.
func (r *Registry) Rules() []Rule {
	if r == nil {
		return nil
	}
	return r.rules
}

// Lookup returns the rule with the given name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	rule, ok := r.byName[name]
	return rule, ok
}

// Names returns the names of the registered rules, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		names = append(names, rule.Name())
	}
	sort.Strings(names)
	return names
}

// ConverterRules returns the converter rules in the registry.
func (r *Registry) ConverterRules() []*ConverterRule {
	var res []*ConverterRule
	for _, rule := range r.Rules() {
		if c, ok := rule.(*ConverterRule); ok {
			res = append(res, c)
		}
	}
	return res
}

// Select returns a registry with the named rules of r, in the order given.
func (r *Registry) Select(names ...string) (*Registry, error) {
	res := &Registry{byName: make(map[string]Rule, len(names))}
	for _, name := range names {
		rule, ok := r.byName[name]
		if !ok {
			return nil, errors.Newf("unknown rule %q", name)
		}
		if err := res.Add(rule); err != nil {
			return nil, err
		}
	}
	return res, nil
}
