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

// Package hep implements the heuristic planner. It keeps one expression per
// vertex of a graph and overwrites it every time a rule proposes a
// replacement, without costing alternatives or remembering what was
// replaced. It suits rule sequences in which every rule always improves the
// plan.
package hep

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
)

// MatchOrder is the order in which the vertices of the graph are offered to
// the rules of an instruction.
type MatchOrder uint8

const (
	// TopDown visits parents before their inputs.
	TopDown MatchOrder = iota
	// BottomUp visits inputs before their parents.
	BottomUp
)

func (o MatchOrder) String() string {
	if o == BottomUp {
		return "bottom-up"
	}
	return "top-down"
}

// MatchOrderFromString parses "top-down" or "bottom-up".
func MatchOrderFromString(s string) (MatchOrder, error) {
	switch strings.ToLower(s) {
	case "top-down", "":
		return TopDown, nil
	case "bottom-up":
		return BottomUp, nil
	}
	return TopDown, errors.Newf("unknown match order %q", s)
}

// Instruction applies a group of rules until none of them matches anymore.
type Instruction struct {
	Rules      []rule.Rule
	MatchOrder MatchOrder
	// MatchLimit, if positive, stops the instruction after that many
	// transformations.
	MatchLimit int
}

// Program is a sequence of instructions applied one after the other.
type Program struct {
	Instructions []Instruction
}

// NewProgram returns a program with one top-down instruction applying rules.
func NewProgram(rules ...rule.Rule) *Program {
	return &Program{Instructions: []Instruction{{Rules: rules}}}
}

// Add appends an instruction and returns p.
func (p *Program) Add(in Instruction) *Program {
	p.Instructions = append(p.Instructions, in)
	return p
}
