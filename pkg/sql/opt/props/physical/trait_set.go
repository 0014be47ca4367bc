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

// Package physical describes the physical properties ("traits") of
// relational expressions. Every expression carries one trait per registered
// trait dimension; the optimizer must make the traits a consumer requires
// match the traits its producer provides.
package physical

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/redact"
)

// MaxTraitDefs is the number of trait dimensions that can be registered.
const MaxTraitDefs = 4

// TraitDef is one dimension of a trait set, such as the calling convention.
type TraitDef struct {
	name    string
	ordinal int
	def     Trait
}

// Name returns the name of the dimension.
func (d *TraitDef) Name() string { return d.name }

// Default returns the trait an expression has in this dimension when none
// was given explicitly.
func (d *TraitDef) Default() Trait { return d.def }

func (d *TraitDef) String() string { return d.name }

// Trait is a physical property value in one dimension. Implementations must
// be comparable with ==; two traits are the same if and only if they are ==.
type Trait interface {
	Def() *TraitDef
	String() string
}

var defs struct {
	sync.RWMutex
	list []*TraitDef
}

// RegisterTraitDef adds a trait dimension. It is meant to be called during
// package initialization.
func RegisterTraitDef(name string, defaultTrait Trait) *TraitDef {
	defs.Lock()
	defer defs.Unlock()
	if len(defs.list) == MaxTraitDefs {
		panic(fmt.Sprintf("cannot register trait %q: at most %d dimensions", name, MaxTraitDefs))
	}
	d := &TraitDef{name: name, ordinal: len(defs.list), def: defaultTrait}
	defs.list = append(defs.list, d)
	return d
}

// Defs returns the registered trait dimensions in registration order.
func Defs() []*TraitDef {
	defs.RLock()
	defer defs.RUnlock()
	return append([]*TraitDef(nil), defs.list...)
}

// TraitSet holds one trait per dimension. Dimensions holding their default
// trait are stored as nil, so that two sets with the same traits are always
// == and can be used as map keys. The zero TraitSet has every dimension at
// its default.
type TraitSet struct {
	traits [MaxTraitDefs]Trait
}

// MakeTraitSet returns the trait set with the given traits, and defaults in
// every other dimension.
func MakeTraitSet(traits ...Trait) TraitSet {
	var s TraitSet
	for _, t := range traits {
		s = s.Replace(t)
	}
	return s
}

// Get returns the trait in the given dimension.
func (s TraitSet) Get(d *TraitDef) Trait {
	if t := s.traits[d.ordinal]; t != nil {
		return t
	}
	return d.def
}

// Replace returns a copy of s with t as the trait of its dimension.
func (s TraitSet) Replace(t Trait) TraitSet {
	d := t.Def()
	if t == d.def {
		s.traits[d.ordinal] = nil
	} else {
		s.traits[d.ordinal] = t
	}
	return s
}

// Contains returns true if t is the trait of its dimension in s.
func (s TraitSet) Contains(t Trait) bool {
	return s.Get(t.Def()) == t
}

// Convention returns the calling convention of s.
func (s TraitSet) Convention() Convention {
	return s.Get(ConventionDef).(Convention)
}

// Diff returns the dimensions in which s and o differ, in registration
// order.
func (s TraitSet) Diff(o TraitSet) []*TraitDef {
	var res []*TraitDef
	for _, d := range Defs() {
		if s.Get(d) != o.Get(d) {
			res = append(res, d)
		}
	}
	return res
}

func (s TraitSet) String() string {
	var b strings.Builder
	for i, d := range Defs() {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Get(d).String())
	}
	return b.String()
}

// SafeFormat implements the redact.SafeFormatter interface. Trait names
// never contain user data.
func (s TraitSet) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(s.String()))
}
