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

package physical

// Convention is the calling convention trait: the execution model an
// expression is implemented in. None marks logical expressions that have no
// implementation yet.
type Convention string

// None is the convention of logical expressions. They cannot be executed
// and cost infinitely much.
const None Convention = "NONE"

// ConventionDef is the trait dimension of calling conventions.
var ConventionDef = RegisterTraitDef("convention", None)

// Def is part of the Trait interface.
func (c Convention) Def() *TraitDef { return ConventionDef }

func (c Convention) String() string { return string(c) }

// ConventionSet returns the trait set with convention c and default traits in
// every other dimension.
func ConventionSet(c Convention) TraitSet {
	return MakeTraitSet(c)
}

// Logical is the trait set of expressions that have not been implemented.
var Logical = TraitSet{}
