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
	"strings"

	"github.com/xlab/treeprint"
)

// String renders every set of the memo with its subsets and members. For
// each subset the best member and its cost are marked:
//
//	memo
//	└── S1 (a INT, b STRING) rows=1000
//	    ├── #1 NONE
//	    │   └── scan t
//	    └── #2 ITERATOR best=scan cost={rows: 1000, cpu: 1000, io: 0}
//	        └── scan t
func (m *Memo) String() string {
	tree := treeprint.NewWithRoot("memo")
	for _, set := range m.Sets() {
		setNode := tree.AddBranch(fmt.Sprintf("S%d %s rows=%g", set.id, set.rowType, set.rowCount))
		for _, sub := range set.subsets {
			label := fmt.Sprintf("#%d %s", sub.id, sub.traits)
			if sub.required {
				label += " required"
			}
			if sub.best != nil {
				label += fmt.Sprintf(" best=%s cost=%s", sub.best.expr.Op(), sub.bestCost)
			}
			subNode := setNode.AddBranch(label)
			for _, mem := range sub.members {
				if !mem.dead {
					subNode.AddNode(m.formatMember(mem))
				}
			}
		}
	}
	return tree.String()
}

// formatMember renders a member on one line, with its children shown as the
// IDs of their subsets.
func (m *Memo) formatMember(mem *Member) string {
	var b strings.Builder
	b.WriteString(mem.expr.Op().String())
	if p := mem.expr.Private(); p != "" {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	for i, n := 0, mem.expr.ChildCount(); i < n; i++ {
		sub := m.subsetOf(mem.expr.Child(i))
		fmt.Fprintf(&b, " #%d", sub.id)
	}
	return b.String()
}
