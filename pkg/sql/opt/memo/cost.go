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

package memo

import (
	"fmt"
	"math"

	"github.com/cockroachdb/redact"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// Cost is the estimated resource usage of an expression, as a vector of row
// count, CPU and I/O. The optimizer never adds weights itself: it asks a
// CostModel to order two costs.
type Cost struct {
	Rows float64
	CPU  float64
	IO   float64
}

// ZeroCost is the cost of doing nothing.
var ZeroCost = Cost{}

// InfiniteCost is the cost of an expression that cannot be executed.
var InfiniteCost = Cost{Rows: math.Inf(1), CPU: math.Inf(1), IO: math.Inf(1)}

// HugeCost is a finite cost larger than any realistic plan. It is given to
// expressions that are legal but should be avoided whenever possible.
var HugeCost = Cost{Rows: 1e100, CPU: 1e100, IO: 1e100}

// Add returns the component-wise sum of c and o.
func (c Cost) Add(o Cost) Cost {
	return Cost{Rows: c.Rows + o.Rows, CPU: c.CPU + o.CPU, IO: c.IO + o.IO}
}

// IsInfinite returns true if any component of c is infinite.
func (c Cost) IsInfinite() bool {
	return math.IsInf(c.Rows, 1) || math.IsInf(c.CPU, 1) || math.IsInf(c.IO, 1)
}

func (c Cost) String() string {
	if c.IsInfinite() {
		return "inf"
	}
	return fmt.Sprintf("{rows: %g, cpu: %g, io: %g}", c.Rows, c.CPU, c.IO)
}

// SafeFormat implements the redact.SafeFormatter interface.
func (c Cost) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(c.String()))
}

// CostModel orders costs. Less must be a strict total order that is monotone
// with respect to Add: adding a non-negative cost never makes a cost less.
type CostModel interface {
	Less(a, b Cost) bool
}

// WeightedCostModel orders costs by the weighted sum of their components.
// Infinite costs are equal to each other and greater than any finite cost.
type WeightedCostModel struct {
	RowsWeight float64
	CPUWeight  float64
	IOWeight   float64
}

// DefaultCostModel weighs every component equally.
var DefaultCostModel = WeightedCostModel{RowsWeight: 1, CPUWeight: 1, IOWeight: 1}

// Scalar reduces c to a single number.
func (m WeightedCostModel) Scalar(c Cost) float64 {
	if c.IsInfinite() {
		return math.Inf(1)
	}
	return c.Rows*m.RowsWeight + c.CPU*m.CPUWeight + c.IO*m.IOWeight
}

// Less is part of the CostModel interface.
func (m WeightedCostModel) Less(a, b Cost) bool {
	if a.IsInfinite() {
		return false
	}
	if b.IsInfinite() {
		return true
	}
	return m.Scalar(a) < m.Scalar(b)
}

// Coster computes the cost of an expression by itself, excluding the cost
// of its inputs. It is called often and must be cheap and free of side
// effects.
type Coster interface {
	ComputeCost(e RelExpr, md Metadata) Cost
}

// DefaultCoster uses each expression's own cost formula, except that
// expressions in the logical convention cannot be executed and cost
// infinitely much.
type DefaultCoster struct{}

var _ Coster = DefaultCoster{}

// ComputeCost is part of the Coster interface.
func (DefaultCoster) ComputeCost(e RelExpr, md Metadata) Cost {
	if e.Traits().Convention() == physical.None {
		return InfiniteCost
	}
	return e.SelfCost(md)
}

// CosterFunc adapts a function to the Coster interface.
type CosterFunc func(e RelExpr, md Metadata) Cost

// ComputeCost is part of the Coster interface.
func (f CosterFunc) ComputeCost(e RelExpr, md Metadata) Cost {
	return f(e, md)
}

// TreeCost returns the cost of the plan rooted at e: the sum of the self
// costs of its expressions. Placeholders must have been replaced.
func TreeCost(e RelExpr, c Coster, md Metadata) Cost {
	cost := c.ComputeCost(e, md)
	for i, n := 0, e.ChildCount(); i < n; i++ {
		cost = cost.Add(TreeCost(e.Child(i), c, md))
	}
	return cost
}

// rowsCost is the default cost formula: one unit of CPU per row produced.
func rowsCost(e RelExpr, md Metadata) Cost {
	rows := md.RowCount(e)
	return Cost{Rows: rows, CPU: rows}
}
