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

package opt

import (
	"fmt"
	"sync"
)

// Operator describes the type of operation that a relational expression
// performs. The built-in operators are listed below; storage connectors
// can add their own with RegisterOperator.
type Operator uint16

const (
	// UnknownOp is the zero value and never describes a real expression.
	UnknownOp Operator = iota

	// ScanOp reads every row of a table.
	ScanOp
	// FilterOp keeps the input rows that satisfy a boolean condition.
	FilterOp
	// ProjectOp computes a list of scalar expressions over each input row.
	ProjectOp
	// JoinOp combines two inputs according to a join type and condition.
	JoinOp
	// AggregateOp groups on a prefix of its input columns and computes
	// aggregate calls.
	AggregateOp
	UnionOp
	IntersectOp
	ExceptOp
	// SampleOp returns a random subset of its input.
	SampleOp
	// TableFunctionOp invokes a function that returns a set of rows.
	TableFunctionOp
	// TableModifyOp inserts, updates, deletes or merges rows of a table.
	TableModifyOp
	// OneRowOp produces a single row with a single column.
	OneRowOp
	// EmptyOp produces no rows.
	EmptyOp
	// ConcatenateOp is the physical UNION ALL: it returns the rows of each
	// input in turn.
	ConcatenateOp
	// ConverterOp changes one trait of its input without changing its rows.
	ConverterOp
	// AbstractConverterOp stands for a chain of converters that has not been
	// chosen yet. It can never be executed.
	AbstractConverterOp
	// SubsetOp is the placeholder used inside the memo to refer to a subset of
	// an equivalence set.
	SubsetOp
	// VertexOp is the placeholder used by the heuristic planner to refer to
	// a vertex of its graph.
	VertexOp

	// AnyOp is not an operator of any expression. Patterns use it to match
	// every operator.
	AnyOp

	// NumOperators tracks the number of built-in operators. Operators added
	// by RegisterOperator come after it.
	NumOperators
)

var operatorNames = []string{
	UnknownOp:           "unknown",
	ScanOp:              "scan",
	FilterOp:            "filter",
	ProjectOp:           "project",
	JoinOp:              "join",
	AggregateOp:         "aggregate",
	UnionOp:             "union",
	IntersectOp:         "intersect",
	ExceptOp:            "except",
	SampleOp:            "sample",
	TableFunctionOp:     "table-function",
	TableModifyOp:       "table-modify",
	OneRowOp:            "one-row",
	EmptyOp:             "empty",
	ConcatenateOp:       "concatenate",
	ConverterOp:         "converter",
	AbstractConverterOp: "abstract-converter",
	SubsetOp:            "subset",
	VertexOp:            "vertex",
	AnyOp:               "any",
}

var registry struct {
	sync.RWMutex
	names []string
}

// RegisterOperator adds a new operator with the given name and returns it.
// It is meant to be called from package init functions. Registering the same
// name twice panics.
func RegisterOperator(name string) Operator {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := lookupLocked(name); ok {
		panic(fmt.Sprintf("operator %q already registered", name))
	}
	registry.names = append(registry.names, name)
	return NumOperators + Operator(len(registry.names)-1)
}

// OperatorByName returns the operator with the given name.
func OperatorByName(name string) (Operator, bool) {
	registry.RLock()
	defer registry.RUnlock()
	return lookupLocked(name)
}

func lookupLocked(name string) (Operator, bool) {
	for i, n := range operatorNames {
		if n == name && Operator(i) != UnknownOp {
			return Operator(i), true
		}
	}
	for i, n := range registry.names {
		if n == name {
			return NumOperators + Operator(i), true
		}
	}
	return UnknownOp, false
}

func (op Operator) String() string {
	if op < NumOperators {
		return operatorNames[op]
	}
	registry.RLock()
	defer registry.RUnlock()
	if i := int(op - NumOperators); i < len(registry.names) {
		return registry.names[i]
	}
	return fmt.Sprintf("operator(%d)", uint16(op))
}

// IsSetOp returns true for the union, intersect and except operators.
func (op Operator) IsSetOp() bool {
	return op == UnionOp || op == IntersectOp || op == ExceptOp
}

// IsPlaceholder returns true for the operators that stand in for another
// expression (memo subsets and heuristic vertices).
func (op Operator) IsPlaceholder() bool {
	return op == SubsetOp || op == VertexOp
}
